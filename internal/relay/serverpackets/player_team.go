package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// PlayerTeam writes a team update payload into buf. Live updates echo the
// opcode the client sent; snapshots use the player_team2 form instead.
// Returns the number of bytes written.
func PlayerTeam(buf []byte, team byte, slot int) int {
	buf[0] = constants.OpcodePlayerTeam
	buf[1] = team
	buf[2] = byte(slot)
	return 3
}
