package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// PlayerReady writes a ready update payload into buf. The broadcast form
// always carries the ready_for_battle byte rather than the raw toggle the
// client sent.
// Returns the number of bytes written.
func PlayerReady(buf []byte, ready byte, slot int) int {
	buf[0] = constants.OpcodePlayerReady
	buf[1] = ready
	buf[2] = byte(slot)
	return 3
}
