package serverpackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
)

func TestGreeting(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	n := Greeting(buf, 3)
	require.Equal(t, 5, n)
	assert.Equal(t, []byte{0x64, 0x0F, 0x00, 0x03, 0x00}, buf[:n])
}

func TestMapDescriptor(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	m := model.DefaultMapInfo()
	n := MapDescriptor(buf, m)

	require.Equal(t, 3+len(m.Filename)+1+len(m.DisplayName), n)
	assert.Equal(t, []byte{0x69, 'D', '8'}, buf[:3])
	assert.Equal(t, "PLAY01.SCN", string(buf[3:13]))
	assert.Equal(t, byte(0x00), buf[13])
	assert.Equal(t, m.DisplayName, string(buf[14:n]))
	// the display name is bounded by the frame, not a terminator
	assert.NotEqual(t, byte(0x00), buf[n-1])
}

func TestPlayerChat(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	n := PlayerChat(buf, "gl hf")
	assert.Equal(t, []byte{0x65, 'g', 'l', ' ', 'h', 'f', 0x00}, buf[:n])
}

func TestPlayerName(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	n := PlayerName(buf, 2, "FooBar")
	assert.Equal(t, []byte{0x67, 0x02, 0x00, 'F', 'o', 'o', 'B', 'a', 'r', 0x00}, buf[:n])
}

func TestPlayerUpdates(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)

	n := PlayerReady(buf, model.ReadyByteForBattle, 4)
	assert.Equal(t, []byte{0x68, 0x02, 0x04}, buf[:n])

	n = PlayerRace(buf, model.RaceHumans, 1)
	assert.Equal(t, []byte{0x66, 0x01, 0x01}, buf[:n])

	n = PlayerColor(buf, 5, 2)
	assert.Equal(t, []byte{0x6B, 0x05, 0x02}, buf[:n])

	n = PlayerTeam(buf, 3, 6)
	assert.Equal(t, []byte{0x6D, 0x03, 0x06}, buf[:n])
}

func TestPing(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	n := Ping(buf)
	assert.Equal(t, []byte{0x71}, buf[:n])
}

func TestGameSpeed(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	n := GameSpeed(buf, constants.GameSpeedDefault)
	assert.Equal(t, []byte{0x13, 0x21, 0x00, 0x00, 0x00}, buf[:n])
}

func TestBattlePing(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	n := BattlePing(buf, 2, 0x11+2)
	require.Equal(t, 9, n)
	assert.Equal(t, []byte{0x02, 0x02, 0x00, 0x00, 0x00, 0x13, 0x00, 0x00, 0x00}, buf[:n])
}

func TestRelay(t *testing.T) {
	buf := make([]byte, constants.DefaultFrameBufSize)
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	n := Relay(buf, constants.OpcodeUnitAttack, data)
	assert.Equal(t, []byte{0x12, 0xDE, 0xAD, 0xBE, 0xEF}, buf[:n])
}
