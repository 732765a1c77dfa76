package roster_test

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/replay/roster"
	"github.com/stretchr/testify/require"
)

const blockSize = 0xE2

func block(marker []byte, name string, entityID uint16, heroCode uint16, team byte) []byte {
	buf := make([]byte, blockSize)
	copy(buf, marker)
	copy(buf[0x03:], name)
	// Stored byte-swapped relative to the canonical event-stream id.
	buf[0xA5] = byte(entityID >> 8)
	buf[0xA6] = byte(entityID)
	binary.LittleEndian.PutUint16(buf[0xA9:], heroCode)
	copy(buf[0xAB:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	buf[0xD5] = team

	return buf
}

func frame0(blocks ...[]byte) []byte {
	var frame []byte
	for _, b := range blocks {
		frame = append(frame, b...)
	}

	return frame
}

var (
	markerA = []byte{0xDA, 0x03, 0xEE}
	markerB = []byte{0xE0, 0x03, 0xEE}
)

func fullRoster() []byte {
	var blocks [][]byte
	for idx := range 6 {
		marker := markerA
		if idx%2 == 1 {
			marker = markerB
		}
		team := byte(1)
		if idx >= 3 {
			team = 2
		}
		blocks = append(blocks, block(marker, fmt.Sprintf("Player%c", 'A'+idx),
			uint16(50100+idx), uint16(9+idx), team))
	}

	return frame0(blocks...)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	players, errExtract := roster.Extract(fullRoster(), replay.Mode3v3Ranked)
	require.NoError(t, errExtract)
	require.Len(t, players, 6)

	require.Equal(t, "PlayerA", players[0].Name)
	require.Equal(t, uint16(50100), players[0].EntityID)
	require.Equal(t, uint16(9), players[0].HeroCode)
	require.Equal(t, [4]byte{0xDE, 0xAD, 0xBE, 0xEF}, players[0].Fingerprint)
	require.Equal(t, replay.TeamLeft, players[0].Team)
	require.Equal(t, replay.TeamRight, players[5].Team)

	require.NoError(t, roster.Validate(players))
}

func TestExtractUUIDs(t *testing.T) {
	t.Parallel()

	frame := fullRoster()
	for idx := range 6 {
		frame = append(frame, []byte(fmt.Sprintf("ACC7%04X-0000-4000-8000-00000000000%d", idx, idx))...)
		frame = append(frame, 0x00)
	}

	players, errExtract := roster.Extract(frame, replay.Mode3v3Ranked)
	require.NoError(t, errExtract)
	require.Equal(t, "ACC70000-0000-4000-8000-000000000000", players[0].UUID)
	require.Equal(t, "ACC70005-0000-4000-8000-000000000005", players[5].UUID)
}

func TestExtractDuplicateNames(t *testing.T) {
	t.Parallel()

	frame := frame0(
		block(markerA, "SameName", 50100, 9, 1),
		block(markerA, "SameName", 50101, 10, 1),
	)

	players, errExtract := roster.Extract(frame, replay.Mode3v3Ranked)
	require.Error(t, errExtract) // short roster
	require.Len(t, players, 1)
}

func TestExtractBadTeamByte(t *testing.T) {
	t.Parallel()

	frame := fullRoster()
	bad := block(markerA, "Weirdo", 50110, 15, 7)
	frame = append(frame, bad...)

	players, errExtract := roster.Extract(frame, replay.Mode3v3Ranked)
	require.ErrorIs(t, errExtract, roster.ErrMalformedPlayerBlock)
	// The roster itself is still usable.
	require.Len(t, players, 7)
}

func TestExtractShortRoster(t *testing.T) {
	t.Parallel()

	frame := frame0(
		block(markerA, "Solo", 50100, 9, 1),
	)

	players, errExtract := roster.Extract(frame, replay.Mode3v3Ranked)
	require.ErrorIs(t, errExtract, roster.ErrMalformedPlayerBlock)
	require.Len(t, players, 1)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, roster.Validate([]replay.PlayerRecord{
		{EntityID: 50100, Name: "a"},
		{EntityID: 50100, Name: "b"},
	}), "duplicate ids must fail")

	require.Error(t, roster.Validate([]replay.PlayerRecord{
		{EntityID: 1024, Name: "turret"},
	}), "ids outside the player range must fail")

	require.NoError(t, roster.Validate([]replay.PlayerRecord{
		{EntityID: 50100, Name: "a"},
		{EntityID: 50101, Name: "b"},
	}))
}
