// Package kda correlates kill and death records into per-player
// scorelines. Kill timestamps in the stream are not trustworthy, so
// kills are attributed unconditionally while deaths are gated on the
// match clock.
package kda

import (
	"log/slog"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/replay/entity"
	"github.com/leighmacdonald/vgr-decode/internal/replay/events"
)

// DefaultDeathBuffer is how many seconds past the coarse match duration
// a death timestamp may land and still be accepted. The final frame is
// truncated, so legitimate deaths routinely overshoot by a few seconds.
const DefaultDeathBuffer = 10.0

type Config struct {
	DeathBuffer float64
}

func DefaultConfig() Config {
	return Config{DeathBuffer: DefaultDeathBuffer}
}

// Line is one player's correlated scoreline.
type Line struct {
	EntityID uint16
	Kills    int
	Deaths   int
}

// StructureDeath is a death record whose victim is a structure,
// preserved for outcome detection downstream.
type StructureDeath struct {
	StructureID uint16
	Timestamp   float64
}

// Result carries both the per-player lines and the bookkeeping around
// what was rejected. Discrepancies counts player deaths whose timestamp
// fell outside the accepted window; those are dropped, never shifted.
type Result struct {
	Lines           map[uint16]*Line
	StructureDeaths []StructureDeath
	Discrepancies   int
	IgnoredKills    int
	IgnoredDeaths   int
}

// Correlate folds the record stream into scorelines for the players in
// match. Feeding the same stream twice produces the same result;
// duplicate records at the same stream position are counted once.
func Correlate(match replay.Match, records []events.Record, config Config) Result {
	result := Result{Lines: map[uint16]*Line{}}
	for _, player := range match.Players {
		result.Lines[player.EntityID] = &Line{EntityID: player.EntityID}
	}

	duration := match.Duration()
	cutoff := duration + config.DeathBuffer

	seen := map[[2]int]bool{}
	for _, record := range records {
		key := [2]int{record.Frame, record.Offset}
		if seen[key] {
			continue
		}
		seen[key] = true

		switch data := record.Data.(type) {
		case events.KillRecord:
			line, ok := result.Lines[data.KillerID]
			if !ok {
				// Turret and minion kills are expected noise.
				result.IgnoredKills++

				continue
			}
			line.Kills++
		case events.DeathRecord:
			switch entity.Classify(data.VictimID) {
			case entity.Player:
				line, ok := result.Lines[data.VictimID]
				if !ok {
					result.IgnoredDeaths++

					continue
				}
				if float64(data.Timestamp) > cutoff {
					result.Discrepancies++
					slog.Debug("death past clock window",
						slog.Int("victim", int(data.VictimID)),
						slog.Float64("ts", float64(data.Timestamp)),
						slog.Float64("cutoff", cutoff))

					continue
				}
				line.Deaths++
			case entity.Structure:
				result.StructureDeaths = append(result.StructureDeaths, StructureDeath{
					StructureID: data.VictimID,
					Timestamp:   float64(data.Timestamp),
				})
			default:
				result.IgnoredDeaths++
			}
		}
	}

	return result
}
