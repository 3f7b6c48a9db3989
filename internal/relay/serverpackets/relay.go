package serverpackets

// Relay writes an opaque forwarded command into buf: the opcode followed by
// the data bytes untouched.
// Returns the number of bytes written.
func Relay(buf []byte, opcode byte, data []byte) int {
	buf[0] = opcode
	return 1 + copy(buf[1:], data)
}
