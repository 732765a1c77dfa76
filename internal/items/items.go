// Package items resolves raw item acquisition codes into catalog items.
// The wire format carries two disjoint code namespaces multiplexed on
// the record's quantity byte; resolution is a pure table lookup and the
// table's confidence grade is passed through, never recomputed.
package items

import (
	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
	"github.com/leighmacdonald/vgr-decode/internal/replay/events"
)

// Quantity values that select a namespace. Anything else is left
// unresolved rather than guessed.
const (
	QuantityPurchase   = 1
	QuantityCompletion = 2
)

// Entry is one resolved (or unresolved) acquisition on a player's
// timeline. When Resolved is false the raw code is still preserved so
// unknown codes surface in output instead of vanishing.
type Entry struct {
	EntityID   uint16
	Code       uint16
	Quantity   uint8
	Namespace  gamedata.Namespace
	ItemID     int
	ItemName   string
	Category   string
	Tier       int
	Confidence gamedata.Confidence
	Resolved   bool
	Sequence   uint16
	Timestamp  float64
}

// Debit is a single gold spend pulled from the credit stream.
type Debit struct {
	EntityID uint16
	Amount   float64
	Frame    int
	Offset   int
}

// Timeline is the resolved acquisition history for a whole match, in
// stream order.
type Timeline struct {
	Entries      []Entry
	Debits       []Debit
	Unresolved   int
	TotalDebited float64
}

// ForEntity filters the timeline down to one player, preserving order.
func (t Timeline) ForEntity(entityID uint16) []Entry {
	var out []Entry
	for _, entry := range t.Entries {
		if entry.EntityID == entityID {
			out = append(out, entry)
		}
	}

	return out
}

// DebitsFor sums the gold debits attributed to one player.
func (t Timeline) DebitsFor(entityID uint16) float64 {
	var total float64
	for _, debit := range t.Debits {
		if debit.EntityID == entityID {
			total += debit.Amount
		}
	}

	return total
}

// Resolve walks the record stream and builds the acquisition timeline.
// Entries come out in exactly the order the records came in. Equip
// records fire only for completed items, so each one confirms the
// completion entry it matches.
func Resolve(tables *gamedata.Tables, records []events.Record) Timeline {
	var (
		timeline Timeline
		equips   []events.ItemEquipRecord
	)
	for _, record := range records {
		switch data := record.Data.(type) {
		case events.ItemAcquireRecord:
			timeline.Entries = append(timeline.Entries, resolveOne(tables, data))
			if !timeline.Entries[len(timeline.Entries)-1].Resolved {
				timeline.Unresolved++
			}
		case events.ItemEquipRecord:
			equips = append(equips, data)
		case events.CreditRecord:
			if data.Action != events.GoldDebitAction {
				continue
			}
			timeline.Debits = append(timeline.Debits, Debit{
				EntityID: data.EntityID,
				Amount:   float64(data.Value),
				Frame:    record.Frame,
				Offset:   record.Offset,
			})
			timeline.TotalDebited += float64(data.Value)
		}
	}

	for _, equip := range equips {
		confirmEntry(&timeline, equip)
	}

	return timeline
}

// confirmEntry promotes a resolved completion entry to confirmed when
// the same entity equips the item the candidate table guessed. The
// equip stream carries catalog ids, not wire codes, so the comparison
// is against the resolved item.
func confirmEntry(timeline *Timeline, equip events.ItemEquipRecord) {
	for idx := range timeline.Entries {
		entry := &timeline.Entries[idx]
		if entry.EntityID != equip.EntityID ||
			entry.Namespace != gamedata.NamespaceCompletion ||
			!entry.Resolved || entry.ItemID != int(equip.ItemCode) {
			continue
		}

		entry.Confidence = gamedata.ConfidenceConfirmed
	}
}

func resolveOne(tables *gamedata.Tables, data events.ItemAcquireRecord) Entry {
	entry := Entry{
		EntityID:  data.EntityID,
		Code:      data.ItemCode,
		Quantity:  data.Quantity,
		Sequence:  data.Sequence,
		Timestamp: float64(data.Timestamp),
	}

	switch data.Quantity {
	case QuantityPurchase:
		entry.Namespace = gamedata.NamespacePurchase
	case QuantityCompletion:
		entry.Namespace = gamedata.NamespaceCompletion
	default:
		return entry
	}

	candidate, found := tables.Lookup(entry.Namespace, data.ItemCode)
	if !found {
		return entry
	}

	item := tables.Items[candidate.ItemID]
	entry.ItemID = item.ID
	entry.ItemName = item.Name
	entry.Category = item.Category
	entry.Tier = item.Tier
	entry.Confidence = candidate.Confidence
	entry.Resolved = true

	return entry
}
