// Package outcome infers the match winner from structure death
// clustering. A core destruction tears down the whole base at once, so
// a burst of same-side structure deaths inside a tight window is the
// win signal. Anything weaker stays Unknown; the winner is never
// guessed.
package outcome

import (
	"sort"

	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
	"github.com/leighmacdonald/vgr-decode/internal/kda"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
)

const (
	// DefaultClusterWindow is the seconds span a destruction burst must
	// fit inside.
	DefaultClusterWindow = 2.0
	// DefaultClusterSize is the minimum same-side structure deaths that
	// constitute a core destruction.
	DefaultClusterSize = 6
)

type Config struct {
	ClusterWindow float64
	ClusterSize   int
}

func DefaultConfig() Config {
	return Config{ClusterWindow: DefaultClusterWindow, ClusterSize: DefaultClusterSize}
}

// Verdict is the detection result. Decided is false when no qualifying
// cluster exists; every other field is zero in that case.
type Verdict struct {
	Decided       bool
	Winner        replay.Team
	DestroyedSide replay.Team
	DestroyedCore uint16
	ClusterStart  float64
	ClusterEnd    float64
	StructureIDs  []uint16
}

type sideCluster struct {
	side  replay.Team
	start float64
	end   float64
	ids   []uint16
}

// Detect buckets structure deaths by roster side and looks for a
// destruction burst on either side. When both sides have one the later
// burst decides, since the core falls last.
func Detect(roster gamedata.StructureRoster, deaths []kda.StructureDeath, config Config) Verdict {
	bySide := map[replay.Team][]kda.StructureDeath{}
	for _, death := range deaths {
		side := roster.Side(death.StructureID)
		if side == replay.TeamUnknown {
			continue
		}
		bySide[side] = append(bySide[side], death)
	}

	var best *sideCluster
	for _, side := range []replay.Team{replay.TeamLeft, replay.TeamRight} {
		cluster := findCluster(side, bySide[side], config)
		if cluster == nil {
			continue
		}
		if best == nil || cluster.end > best.end {
			best = cluster
		}
	}

	if best == nil {
		return Verdict{}
	}

	return Verdict{
		Decided:       true,
		Winner:        best.side.Opposite(),
		DestroyedSide: best.side,
		DestroyedCore: roster.Core(best.side),
		ClusterStart:  best.start,
		ClusterEnd:    best.end,
		StructureIDs:  best.ids,
	}
}

func findCluster(side replay.Team, deaths []kda.StructureDeath, config Config) *sideCluster {
	if len(deaths) < config.ClusterSize {
		return nil
	}

	sorted := make([]kda.StructureDeath, len(deaths))
	copy(sorted, deaths)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	// Slide a window over the sorted timestamps, keeping the latest
	// qualifying burst.
	var found *sideCluster
	for lo := 0; lo+config.ClusterSize <= len(sorted); lo++ {
		hi := lo + config.ClusterSize - 1
		if sorted[hi].Timestamp-sorted[lo].Timestamp > config.ClusterWindow {
			continue
		}

		// Extend past the minimum while the window still holds.
		for hi+1 < len(sorted) && sorted[hi+1].Timestamp-sorted[lo].Timestamp <= config.ClusterWindow {
			hi++
		}

		cluster := &sideCluster{side: side, start: sorted[lo].Timestamp, end: sorted[hi].Timestamp}
		for _, death := range sorted[lo : hi+1] {
			cluster.ids = append(cluster.ids, death.StructureID)
		}
		found = cluster
	}

	return found
}
