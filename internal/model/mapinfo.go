package model

import "strings"

// MapInfo describes the scenario a room will launch. The lobby only ever
// advertises it; the scenario file itself lives on every client install.
type MapInfo struct {
	Type        byte   // map class character, 'D' for desert
	PlayerCount byte   // ASCII digit of the supported player count
	Filename    string // scenario file name on the client side
	DisplayName string // listing text shown in the lobby map browser
}

// DefaultMapInfo returns the eight-player desert map that ships with every
// retail install. The display name carries the original listing padding so
// the client renders the description column correctly.
func DefaultMapInfo() MapInfo {
	return MapInfo{
		Type:        'D',
		PlayerCount: '8',
		Filename:    "PLAY01.SCN",
		DisplayName: "Armageddon\n" + strings.Repeat(" ", 33) + "(8 Player Desert Map )",
	}
}
