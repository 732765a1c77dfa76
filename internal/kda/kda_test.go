package kda_test

import (
	"testing"

	"github.com/leighmacdonald/vgr-decode/internal/kda"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/replay/events"
	"github.com/stretchr/testify/require"
)

func testMatch(frames int) replay.Match {
	match := replay.Match{
		Players: []replay.PlayerRecord{
			{EntityID: 50123, Name: "alpha", Team: replay.TeamLeft},
			{EntityID: 50456, Name: "bravo", Team: replay.TeamRight},
		},
	}
	for idx := range frames {
		match.Frames = append(match.Frames, replay.Frame{Index: idx})
	}

	return match
}

func kill(frame int, offset int, killer uint16) events.Record {
	return events.Record{
		Type: events.Kill, Frame: frame, Offset: offset,
		Data: events.KillRecord{KillerID: killer},
	}
}

func death(frame int, offset int, victim uint16, timestamp float32) events.Record {
	return events.Record{
		Type: events.Death, Frame: frame, Offset: offset,
		Data: events.DeathRecord{VictimID: victim, Timestamp: timestamp},
	}
}

func TestCorrelate(t *testing.T) {
	t.Parallel()

	match := testMatch(100) // 600s coarse duration
	records := []events.Record{
		kill(1, 10, 50123),
		kill(2, 20, 50123),
		kill(3, 30, 50456),
		kill(4, 40, 20555), // minion killer, ignored
		death(5, 50, 50456, 120.5),
		death(6, 60, 50123, 300.0),
		death(7, 70, 4096, 310.0), // structure, routed aside
	}

	result := kda.Correlate(match, records, kda.DefaultConfig())
	require.Equal(t, 2, result.Lines[50123].Kills)
	require.Equal(t, 1, result.Lines[50123].Deaths)
	require.Equal(t, 1, result.Lines[50456].Kills)
	require.Equal(t, 1, result.Lines[50456].Deaths)
	require.Equal(t, 1, result.IgnoredKills)
	require.Len(t, result.StructureDeaths, 1)
	require.InDelta(t, 310.0, result.StructureDeaths[0].Timestamp, 0.001)
	require.Zero(t, result.Discrepancies)
}

func TestCorrelateDeathWindow(t *testing.T) {
	t.Parallel()

	match := testMatch(100)
	cutoff := match.Duration() + kda.DefaultDeathBuffer

	records := []events.Record{
		death(1, 0, 50123, float32(cutoff)),   // boundary is inclusive
		death(2, 0, 50123, float32(cutoff)+1), // past the window, rejected
		death(3, 0, 50456, 9999.0),
	}

	result := kda.Correlate(match, records, kda.DefaultConfig())
	require.Equal(t, 1, result.Lines[50123].Deaths)
	require.Equal(t, 0, result.Lines[50456].Deaths)
	require.Equal(t, 2, result.Discrepancies)
}

func TestCorrelateKillsUngated(t *testing.T) {
	t.Parallel()

	// Kill timestamps are unreliable so kills never hit the clock gate.
	match := testMatch(1)
	records := []events.Record{kill(0, 0, 50123)}

	result := kda.Correlate(match, records, kda.DefaultConfig())
	require.Equal(t, 1, result.Lines[50123].Kills)
}

func TestCorrelateIdempotent(t *testing.T) {
	t.Parallel()

	match := testMatch(50)
	records := []events.Record{
		kill(1, 10, 50123),
		death(2, 20, 50456, 60.0),
	}
	records = append(records, records...) // replayed stream

	result := kda.Correlate(match, records, kda.DefaultConfig())
	require.Equal(t, 1, result.Lines[50123].Kills)
	require.Equal(t, 1, result.Lines[50456].Deaths)
}

func TestCorrelateUnknownPlayer(t *testing.T) {
	t.Parallel()

	match := testMatch(50)
	records := []events.Record{
		death(1, 0, 51999, 10.0), // player-class id absent from roster
	}

	result := kda.Correlate(match, records, kda.DefaultConfig())
	require.Equal(t, 1, result.IgnoredDeaths)
	require.Zero(t, result.Discrepancies)
}
