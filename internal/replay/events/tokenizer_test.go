package events_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/replay/events"
	"github.com/stretchr/testify/require"
)

func actionRecord(entityID uint16, action byte) []byte {
	record := make([]byte, events.ActionRecordLen)
	binary.LittleEndian.PutUint16(record, entityID)
	record[4] = action
	for i := 5; i < len(record); i++ {
		record[i] = 0xAB
	}

	return record
}

func scanFrame(data []byte) events.Result {
	match := replay.Match{Frames: []replay.Frame{{Index: 0, Data: data}}}

	return events.NewTokenizer().ScanMatch(match)
}

func TestScanActions(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, actionRecord(50100, 0x21)...)
	data = append(data, actionRecord(50101, 0x05)...)
	data = append(data, actionRecord(50100, 0x21)...)

	result := scanFrame(data)
	require.Len(t, result.Actions, 3)
	require.Equal(t, uint16(50100), result.Actions[0].EntityID)
	require.Equal(t, byte(0x21), result.Actions[0].Action)
	require.Equal(t, uint16(50101), result.Actions[1].EntityID)
	require.Equal(t, 0, result.Actions[0].Offset)
	require.Equal(t, events.ActionRecordLen, result.Actions[1].Offset)
	require.Zero(t, result.SkippedBytes)
}

func TestScanActionsRoundTrip(t *testing.T) {
	t.Parallel()

	// Records with short non-pad junk between them: every byte is
	// either part of a record or individually skipped.
	var data []byte
	data = append(data, actionRecord(50100, 0x21)...)
	data = append(data, 0x00, 0x00, 0x00)
	data = append(data, actionRecord(50101, 0x07)...)
	data = append(data, 0xAB, 0xCD)

	result := scanFrame(data)
	require.Len(t, result.Actions, 2)
	require.Equal(t, len(data),
		events.ActionRecordLen*len(result.Actions)+result.SkippedBytes)
}

func TestScanActionsEntityZeroAnd128(t *testing.T) {
	t.Parallel()

	// Entity ids 0 and 128 overlap the zero pad pattern; they must be
	// kept when the action byte is set and skipped when it is not.
	var data []byte
	data = append(data, actionRecord(0, 0x09)...)
	data = append(data, actionRecord(128, 0x11)...)

	result := scanFrame(data)
	require.Len(t, result.Actions, 2)
	require.Equal(t, uint16(0), result.Actions[0].EntityID)
	require.Equal(t, uint16(128), result.Actions[1].EntityID)

	// A pure zero run yields nothing but skipped bytes.
	pads := scanFrame(make([]byte, 128))
	require.Empty(t, pads.Actions)
	require.Equal(t, 128, pads.SkippedBytes)
}

func putFloat(buf []byte, value float32) {
	binary.BigEndian.PutUint32(buf, math.Float32bits(value))
}

func TestScanKill(t *testing.T) {
	t.Parallel()

	record := make([]byte, 16)
	copy(record, []byte{0x18, 0x04, 0x1C})
	binary.BigEndian.PutUint16(record[5:], 50100)
	copy(record[7:], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	putFloat(record[11:], 1.0)
	record[15] = 0x29

	// A plausible float timestamp sits seven bytes before the header.
	data := make([]byte, 7)
	putFloat(data[0:], 423.5)
	data = append(data, record...)

	result := scanFrame(data)
	require.Len(t, result.Records, 1)
	require.Equal(t, events.Kill, result.Records[0].Type)

	kill, ok := result.Records[0].Data.(events.KillRecord)
	require.True(t, ok)
	require.Equal(t, uint16(50100), kill.KillerID)
	require.True(t, kill.HasTimestamp)
	require.InDelta(t, 423.5, float64(kill.Timestamp), 0.001)

	// Same bytes without the trailing constant must not decode.
	broken := make([]byte, len(data))
	copy(broken, data)
	broken[7+15] = 0x00
	require.Empty(t, scanFrame(broken).Records)
}

func TestScanDeath(t *testing.T) {
	t.Parallel()

	record := make([]byte, 13)
	copy(record, []byte{0x08, 0x04, 0x31})
	binary.BigEndian.PutUint16(record[5:], 50103)
	putFloat(record[9:], 351.25)

	result := scanFrame(append(make([]byte, 4), record...))
	require.Len(t, result.Records, 1)

	death, ok := result.Records[0].Data.(events.DeathRecord)
	require.True(t, ok)
	require.Equal(t, uint16(50103), death.VictimID)
	require.InDelta(t, 351.25, float64(death.Timestamp), 0.001)
	require.Equal(t, 4, result.Records[0].Offset)
}

func TestScanCredit(t *testing.T) {
	t.Parallel()

	record := make([]byte, 12)
	copy(record, []byte{0x10, 0x04, 0x1D})
	binary.BigEndian.PutUint16(record[5:], 50100)
	putFloat(record[7:], -300)
	record[11] = events.GoldDebitAction

	result := scanFrame(append(record, make([]byte, 8)...))
	require.Len(t, result.Records, 1)

	credit, ok := result.Records[0].Data.(events.CreditRecord)
	require.True(t, ok)
	require.Equal(t, uint16(50100), credit.EntityID)
	require.InDelta(t, -300.0, float64(credit.Value), 0.001)
	require.Equal(t, events.GoldDebitAction, credit.Action)
}

func TestScanItemAcquire(t *testing.T) {
	t.Parallel()

	record := make([]byte, 20)
	copy(record, []byte{0x10, 0x04, 0x3D})
	binary.BigEndian.PutUint16(record[5:], 50100)
	record[9] = 1
	binary.LittleEndian.PutUint16(record[10:], 202)
	binary.BigEndian.PutUint16(record[14:], 7)
	putFloat(record[16:], 12.5)

	result := scanFrame(append(make([]byte, 2), record...))
	require.Len(t, result.Records, 1)

	acquire, ok := result.Records[0].Data.(events.ItemAcquireRecord)
	require.True(t, ok)
	require.Equal(t, uint16(50100), acquire.EntityID)
	require.Equal(t, byte(1), acquire.Quantity)
	require.Equal(t, uint16(202), acquire.ItemCode, "item code is little-endian")
	require.Equal(t, uint16(7), acquire.Sequence)
	require.InDelta(t, 12.5, float64(acquire.Timestamp), 0.001)
}

func TestScanItemEquip(t *testing.T) {
	t.Parallel()

	record := make([]byte, 15)
	copy(record, []byte{0x10, 0x04, 0x4B})
	binary.BigEndian.PutUint16(record[5:], 50103)
	record[9] = 0x07
	binary.LittleEndian.PutUint16(record[10:], 423)
	record[13] = 0x01

	result := scanFrame(append(make([]byte, 2), record...))
	require.Len(t, result.Records, 1)

	equip, ok := result.Records[0].Data.(events.ItemEquipRecord)
	require.True(t, ok)
	require.Equal(t, uint16(50103), equip.EntityID)
	require.Equal(t, uint16(423), equip.ItemCode)
}

func TestScanUnknownHeaderKeepsAlignment(t *testing.T) {
	t.Parallel()

	record := make([]byte, 13)
	copy(record, []byte{0x08, 0x04, 0x31})
	binary.BigEndian.PutUint16(record[5:], 50103)
	putFloat(record[9:], 99.5)

	// A header-shaped run the scanner does not recognize must be
	// stepped over without swallowing the record behind it.
	data := []byte{0x55, 0x04, 0x99, 0x00, 0x00}
	data = append(data, record...)

	result := scanFrame(data)
	require.Len(t, result.Records, 1)
	require.Equal(t, events.Death, result.Records[0].Type)
	require.Equal(t, 5, result.Records[0].Offset)
}

func TestScanOffsetsSpanFrames(t *testing.T) {
	t.Parallel()

	record := make([]byte, 13)
	copy(record, []byte{0x08, 0x04, 0x31})
	binary.BigEndian.PutUint16(record[5:], 50103)
	putFloat(record[9:], 10)

	match := replay.Match{Frames: []replay.Frame{
		{Index: 0, Data: make([]byte, 100)},
		{Index: 1, Data: append(make([]byte, 4), record...)},
	}}

	result := events.NewTokenizer().ScanMatch(match)
	require.Len(t, result.Records, 1)
	require.Equal(t, 1, result.Records[0].Frame)
	require.Equal(t, 104, result.Records[0].Offset, "offset is absolute in the stream")
}
