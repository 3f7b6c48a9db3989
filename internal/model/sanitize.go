package model

const (
	// MaxNameLen bounds a player name after sanitization.
	MaxNameLen = 32

	// MaxChatLen bounds a chat line after sanitization.
	MaxChatLen = 120
)

// SanitizeName drops everything outside printable ASCII and truncates the
// result to MaxNameLen. The client renders names with its own bitmap font,
// so anything else would show as garbage tiles.
func SanitizeName(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if b := raw[i]; b >= 0x20 && b <= 0x7E {
			out = append(out, b)
		}
	}
	if len(out) > MaxNameLen {
		out = out[:MaxNameLen]
	}
	return string(out)
}

// SanitizeChat drops carriage returns and line feeds and truncates to
// MaxChatLen. Line breaks would let one player forge lobby system lines.
func SanitizeChat(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b == '\r' || b == '\n' {
			continue
		}
		out = append(out, b)
	}
	if len(out) > MaxChatLen {
		out = out[:MaxChatLen]
	}
	return string(out)
}
