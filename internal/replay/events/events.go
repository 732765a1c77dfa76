// Package events tokenizes the raw replay byte stream. The format
// interleaves two unrelated encodings: a high-frequency per-entity
// action stream and a sparse discrete global-event stream, so the
// tokenizer makes two independent passes over the same bytes.
package events

import (
	"errors"
)

var ErrDesynchronizedStream = errors.New("tokenizer desynchronized")

// Type tags a decoded global-event record.
type Type int

const (
	Unknown Type = iota
	Kill
	Death
	Credit
	ItemAcquire
	ItemEquip
)

func (t Type) String() string {
	switch t {
	case Kill:
		return "kill"
	case Death:
		return "death"
	case Credit:
		return "credit"
	case ItemAcquire:
		return "item_acquire"
	case ItemEquip:
		return "item_equip"
	default:
		return "unknown"
	}
}

// Record is one decoded global event. Offset is the absolute byte
// offset in the assembled stream and doubles as the tie-break ordering
// key since not every record type carries a timestamp.
type Record struct {
	Type   Type
	Frame  int
	Offset int
	Data   any
}

// KillRecord credits the killer. The trailing-side timestamp is copied
// when it decodes to something plausible, but it disagrees with itself
// across validation passes so consumers must not filter on it.
type KillRecord struct {
	KillerID     uint16
	Timestamp    float32
	HasTimestamp bool
}

// DeathRecord marks an entity death at a seconds-since-start timestamp.
type DeathRecord struct {
	VictimID  uint16
	Timestamp float32
}

// CreditRecord is a currency ledger entry. Action 0x06 with a negative
// value is a shop debit.
type CreditRecord struct {
	EntityID uint16
	Value    float32
	Action   byte
}

// GoldDebitAction marks a credit record as a shop purchase debit.
const GoldDebitAction byte = 0x06

// ItemAcquireRecord is an inventory addition. ItemCode is stored
// little-endian while every sibling field is big-endian; the quirk is
// the format's, not ours.
type ItemAcquireRecord struct {
	EntityID  uint16
	Quantity  byte
	ItemCode  uint16
	Sequence  uint16
	Timestamp float32
}

// ItemEquipRecord fires when a completed item enters an inventory slot.
type ItemEquipRecord struct {
	EntityID uint16
	ItemCode uint16
}

// ActionEvent is one per-entity record from the high-frequency stream.
type ActionEvent struct {
	EntityID uint16
	Action   byte
	Payload  [ActionPayloadLen]byte
	Frame    int
	Offset   int
}

// ActionPayloadLen is the fixed opaque payload size of an action record.
const ActionPayloadLen = 32

// ActionRecordLen is the full wire size of one action record:
// [eid u16 LE][00 00][action u8][payload].
const ActionRecordLen = 2 + 2 + 1 + ActionPayloadLen
