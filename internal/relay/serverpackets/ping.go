package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// Ping writes an empty lobby keep-alive payload into buf.
// Returns the number of bytes written.
func Ping(buf []byte) int {
	buf[0] = constants.OpcodePing
	return 1
}
