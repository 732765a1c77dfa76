package items_test

import (
	"testing"

	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
	"github.com/leighmacdonald/vgr-decode/internal/items"
	"github.com/leighmacdonald/vgr-decode/internal/replay/events"
	"github.com/stretchr/testify/require"
)

func acquire(offset int, entityID uint16, quantity byte, code uint16, ts float32) events.Record {
	return events.Record{
		Type: events.ItemAcquire, Frame: 0, Offset: offset,
		Data: events.ItemAcquireRecord{
			EntityID: entityID, Quantity: quantity, ItemCode: code, Timestamp: ts,
		},
	}
}

func TestResolvePurchases(t *testing.T) {
	t.Parallel()

	tables, errLoad := gamedata.Load()
	require.NoError(t, errLoad)

	// An opening shop trip: every code is in the purchase table.
	codes := []uint16{202, 243, 204, 249, 205}
	var records []events.Record
	for idx, code := range codes {
		records = append(records, acquire(idx*20, 50123, items.QuantityPurchase, code, float32(idx)))
	}

	timeline := items.Resolve(tables, records)
	require.Len(t, timeline.Entries, len(codes))
	require.Zero(t, timeline.Unresolved)

	for idx, entry := range timeline.Entries {
		require.Equal(t, codes[idx], entry.Code, "input order must be preserved")
		require.True(t, entry.Resolved)
		require.Equal(t, gamedata.NamespacePurchase, entry.Namespace)
		require.NotEmpty(t, entry.ItemName)
		require.NotEqual(t, gamedata.ConfidenceUnknown, entry.Confidence)
	}
}

func TestResolveNamespaceSplit(t *testing.T) {
	t.Parallel()

	tables, errLoad := gamedata.Load()
	require.NoError(t, errLoad)

	// Code 228 exists in both namespaces and must resolve differently.
	records := []events.Record{
		acquire(0, 50123, items.QuantityPurchase, 228, 10),
		acquire(20, 50123, items.QuantityCompletion, 228, 11),
	}

	timeline := items.Resolve(tables, records)
	require.Len(t, timeline.Entries, 2)
	require.True(t, timeline.Entries[0].Resolved)
	require.True(t, timeline.Entries[1].Resolved)
	require.NotEqual(t, timeline.Entries[0].ItemID, timeline.Entries[1].ItemID)
}

func TestResolveUnknownCode(t *testing.T) {
	t.Parallel()

	tables, errLoad := gamedata.Load()
	require.NoError(t, errLoad)

	records := []events.Record{
		acquire(0, 50123, items.QuantityPurchase, 0xFEFE, 5),
		acquire(20, 50123, 7, 202, 6), // quantity outside both namespaces
	}

	timeline := items.Resolve(tables, records)
	require.Len(t, timeline.Entries, 2)
	require.Equal(t, 2, timeline.Unresolved)

	// The raw code survives for unknowns so it shows up in reports.
	require.False(t, timeline.Entries[0].Resolved)
	require.Equal(t, uint16(0xFEFE), timeline.Entries[0].Code)
	require.Equal(t, gamedata.ConfidenceUnknown, timeline.Entries[0].Confidence)
	require.False(t, timeline.Entries[1].Resolved)
}

func equip(offset int, entityID uint16, itemID uint16) events.Record {
	return events.Record{
		Type: events.ItemEquip, Frame: 0, Offset: offset,
		Data: events.ItemEquipRecord{EntityID: entityID, ItemCode: itemID},
	}
}

func TestResolveEquipConfirms(t *testing.T) {
	t.Parallel()

	tables, errLoad := gamedata.Load()
	require.NoError(t, errLoad)

	// Completion code 4 resolves to item 122 at inferred confidence;
	// the matching equip upgrades it. The second player equips a
	// different item so their entry must keep its table grade.
	records := []events.Record{
		acquire(0, 50123, items.QuantityCompletion, 4, 100),
		acquire(20, 50456, items.QuantityCompletion, 4, 101),
		equip(40, 50123, 122),
		equip(60, 50456, 403),
	}

	timeline := items.Resolve(tables, records)
	require.Len(t, timeline.Entries, 2)
	require.Equal(t, gamedata.ConfidenceConfirmed, timeline.Entries[0].Confidence)
	require.Equal(t, gamedata.ConfidenceInferred, timeline.Entries[1].Confidence)
}

func TestResolveDebits(t *testing.T) {
	t.Parallel()

	tables, errLoad := gamedata.Load()
	require.NoError(t, errLoad)

	records := []events.Record{
		{Type: events.Credit, Frame: 1, Offset: 0, Data: events.CreditRecord{
			EntityID: 50123, Value: -300, Action: events.GoldDebitAction,
		}},
		{Type: events.Credit, Frame: 1, Offset: 12, Data: events.CreditRecord{
			EntityID: 50123, Value: 75, Action: 0x01, // passive income, not a debit
		}},
		{Type: events.Credit, Frame: 2, Offset: 0, Data: events.CreditRecord{
			EntityID: 50456, Value: -150, Action: events.GoldDebitAction,
		}},
	}

	timeline := items.Resolve(tables, records)
	require.Len(t, timeline.Debits, 2)
	require.InDelta(t, -300.0, timeline.DebitsFor(50123), 0.001)
	require.InDelta(t, -150.0, timeline.DebitsFor(50456), 0.001)
	require.InDelta(t, -450.0, timeline.TotalDebited, 0.001)
}

func TestForEntity(t *testing.T) {
	t.Parallel()

	tables, errLoad := gamedata.Load()
	require.NoError(t, errLoad)

	records := []events.Record{
		acquire(0, 50123, items.QuantityPurchase, 202, 1),
		acquire(20, 50456, items.QuantityPurchase, 243, 2),
		acquire(40, 50123, items.QuantityPurchase, 205, 3),
	}

	timeline := items.Resolve(tables, records)
	mine := timeline.ForEntity(50123)
	require.Len(t, mine, 2)
	require.Equal(t, uint16(202), mine[0].Code)
	require.Equal(t, uint16(205), mine[1].Code)
}
