package events

import (
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
)

// Known 3-byte headers of the discrete global-event stream. All share
// the literal middle byte 0x04.
var (
	headerKill        = [3]byte{0x18, 0x04, 0x1C}
	headerDeath       = [3]byte{0x08, 0x04, 0x31}
	headerCredit      = [3]byte{0x10, 0x04, 0x1D}
	headerItemAcquire = [3]byte{0x10, 0x04, 0x3D}
	headerItemEquip   = [3]byte{0x10, 0x04, 0x4B}
)

// headerMiddle is the shared middle byte scanned for as an anchor.
const headerMiddle = 0x04

// DefaultDesyncThreshold is how many bytes the global-event pass may go
// without a validated header before the stretch counts as a desync.
const DefaultDesyncThreshold = 64 * 1024

type headerSpec struct {
	recordType Type
	length     int
	decode     func(data []byte, pos int) (any, bool)
}

// Tokenizer splits frame buffers into the two record streams. It is
// stateless between matches and safe to reuse.
type Tokenizer struct {
	registry        map[[3]byte]headerSpec
	DesyncThreshold int
}

func NewTokenizer() *Tokenizer {
	tok := &Tokenizer{
		registry:        map[[3]byte]headerSpec{},
		DesyncThreshold: DefaultDesyncThreshold,
	}
	tok.registry[headerKill] = headerSpec{Kill, 16, decodeKill}
	tok.registry[headerDeath] = headerSpec{Death, 13, decodeDeath}
	tok.registry[headerCredit] = headerSpec{Credit, 12, decodeCredit}
	tok.registry[headerItemAcquire] = headerSpec{ItemAcquire, 20, decodeItemAcquire}
	tok.registry[headerItemEquip] = headerSpec{ItemEquip, 15, decodeItemEquip}

	return tok
}

// Result accumulates both token streams for a match.
type Result struct {
	Actions []ActionEvent
	Records []Record
	// SkippedBytes counts bytes of the action pass not covered by a
	// record. Record bytes + skipped bytes always equals stream length.
	SkippedBytes int
	// Desyncs counts implausibly long recognizer droughts in the
	// global-event pass. Nonzero values are logged, never fatal.
	Desyncs int
}

// ScanMatch tokenizes every frame of the match. Offsets are absolute
// within the concatenated logical stream so they stay usable as a
// global ordering key.
func (t *Tokenizer) ScanMatch(match replay.Match) Result {
	var (
		result Result
		base   int
	)

	for _, frame := range match.Frames {
		t.scanActions(frame, base, &result)
		t.scanGlobalEvents(frame, base, &result)
		base += len(frame.Data)
	}

	if result.Desyncs > 0 {
		slog.Warn("Tokenizer resynced after unrecognized stretches",
			slog.String("match", match.Name),
			slog.Int("desyncs", result.Desyncs),
			slog.String("error", ErrDesynchronizedStream.Error()))
	}

	return result
}

// scanActions walks the per-entity stream: [eid u16 LE][00 00][action][32B].
//
// Entity ids 0 and 128 need explicit handling: entity 0's four leading
// bytes are indistinguishable from zero padding, and 128 encodes as
// [80 00] so its tail also overlaps the pad pattern. A generic non-zero
// marker check silently drops every entity-0 event, so those two ids
// are accepted on action-byte evidence instead.
func (t *Tokenizer) scanActions(frame replay.Frame, base int, result *Result) {
	data := frame.Data
	idx := 0

	for idx+ActionRecordLen <= len(data) {
		if data[idx+2] != 0 || data[idx+3] != 0 {
			idx++
			result.SkippedBytes++

			continue
		}

		entityID := binary.LittleEndian.Uint16(data[idx:])
		if entityID == 0 || entityID == 128 {
			if data[idx+4] == 0 {
				// Pad run, not a record.
				idx++
				result.SkippedBytes++

				continue
			}
		}

		var event ActionEvent
		event.EntityID = entityID
		event.Action = data[idx+4]
		copy(event.Payload[:], data[idx+5:idx+5+ActionPayloadLen])
		event.Frame = frame.Index
		event.Offset = base + idx
		result.Actions = append(result.Actions, event)

		idx += ActionRecordLen
	}

	result.SkippedBytes += len(data) - idx
}

// scanGlobalEvents anchors on the shared middle byte 0x04 and validates
// the bracketing bytes against the header registry. Unrecognized or
// invalid candidates advance a single byte; alignment is never thrown
// away for the rest of the frame.
func (t *Tokenizer) scanGlobalEvents(frame replay.Frame, base int, result *Result) {
	data := frame.Data
	lastHit := 0

	for idx := 1; idx+1 < len(data); idx++ {
		if data[idx] != headerMiddle {
			continue
		}

		pos := idx - 1
		var header [3]byte
		copy(header[:], data[pos:pos+3])

		spec, known := t.registry[header]
		if !known || pos+spec.length > len(data) {
			continue
		}

		payload, valid := spec.decode(data, pos)
		if !valid {
			continue
		}

		if pos-lastHit > t.DesyncThreshold {
			result.Desyncs++
		}
		lastHit = pos

		result.Records = append(result.Records, Record{
			Type:   spec.recordType,
			Frame:  frame.Index,
			Offset: base + pos,
			Data:   payload,
		})

		// Jump past the validated record; the anchor loop then resumes
		// the byte-at-a-time scan.
		idx = pos + spec.length - 1
	}

	if len(data) > 0 && len(data)-lastHit > t.DesyncThreshold {
		result.Desyncs++
	}
}

func beFloat32(data []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(data))
}

// plausibleTimestamp bounds seconds-since-start values. Nothing runs
// longer than 30 minutes plus reconciliation noise.
func plausibleTimestamp(ts float32) bool {
	return ts > 0 && ts < 1800 && !math.IsNaN(float64(ts))
}

// decodeKill validates [18 04 1C][00 00][killer BE][FF FF FF FF]
// [3F 80 00 00][29]. A float timestamp sometimes precedes the
// header; it is copied when plausible but flagged as unreliable.
func decodeKill(data []byte, pos int) (any, bool) {
	if data[pos+3] != 0 || data[pos+4] != 0 {
		return nil, false
	}
	for i := pos + 7; i < pos+11; i++ {
		if data[i] != 0xFF {
			return nil, false
		}
	}
	if beFloat32(data[pos+11:]) != 1.0 {
		return nil, false
	}
	if data[pos+15] != 0x29 {
		return nil, false
	}

	record := KillRecord{KillerID: binary.BigEndian.Uint16(data[pos+5:])}
	if pos >= 7 {
		if ts := beFloat32(data[pos-7:]); plausibleTimestamp(ts) {
			record.Timestamp = ts
			record.HasTimestamp = true
		}
	}

	return record, true
}

// decodeDeath validates [08 04 31][00 00][victim BE][00 00][ts f32 BE].
func decodeDeath(data []byte, pos int) (any, bool) {
	if data[pos+3] != 0 || data[pos+4] != 0 || data[pos+7] != 0 || data[pos+8] != 0 {
		return nil, false
	}

	ts := beFloat32(data[pos+9:])
	if math.IsNaN(float64(ts)) || ts < 0 {
		return nil, false
	}

	return DeathRecord{
		VictimID:  binary.BigEndian.Uint16(data[pos+5:]),
		Timestamp: ts,
	}, true
}

// decodeCredit validates [10 04 1D][00 00][eid BE][value f32 BE][action].
func decodeCredit(data []byte, pos int) (any, bool) {
	if data[pos+3] != 0 || data[pos+4] != 0 {
		return nil, false
	}

	value := beFloat32(data[pos+7:])
	if math.IsNaN(float64(value)) {
		return nil, false
	}

	return CreditRecord{
		EntityID: binary.BigEndian.Uint16(data[pos+5:]),
		Value:    value,
		Action:   data[pos+11],
	}, true
}

// decodeItemAcquire validates [10 04 3D][00 00][eid BE][00 00][qty]
// [code u16 LE][00 00][seq BE][ts f32 BE]. The item code is the single
// little-endian field in this stream; preserve the quirk, never "fix" it.
func decodeItemAcquire(data []byte, pos int) (any, bool) {
	if data[pos+3] != 0 || data[pos+4] != 0 || data[pos+7] != 0 || data[pos+8] != 0 {
		return nil, false
	}

	ts := beFloat32(data[pos+16:])
	if math.IsNaN(float64(ts)) {
		return nil, false
	}

	return ItemAcquireRecord{
		EntityID:  binary.BigEndian.Uint16(data[pos+5:]),
		Quantity:  data[pos+9],
		ItemCode:  binary.LittleEndian.Uint16(data[pos+10:]),
		Sequence:  binary.BigEndian.Uint16(data[pos+14:]),
		Timestamp: ts,
	}, true
}

// decodeItemEquip validates [10 04 4B][00 00][eid BE][00 00 07]
// [code u16 LE][00 01 00]. Fires only for completed tier 2+ items.
func decodeItemEquip(data []byte, pos int) (any, bool) {
	if data[pos+3] != 0 || data[pos+4] != 0 {
		return nil, false
	}
	if data[pos+7] != 0 || data[pos+8] != 0 || data[pos+9] != 0x07 {
		return nil, false
	}
	if data[pos+12] != 0 || data[pos+13] != 0x01 || data[pos+14] != 0 {
		return nil, false
	}

	return ItemEquipRecord{
		EntityID: binary.BigEndian.Uint16(data[pos+5:]),
		ItemCode: binary.LittleEndian.Uint16(data[pos+10:]),
	}, true
}
