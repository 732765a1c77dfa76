// Package truth overlays externally sourced match records onto decoded
// results. Overlay data is applied strictly after decoding and never
// influences the byte-level pipeline; it fills gaps and reports
// disagreements, it does not rewrite decoded values.
package truth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/leighmacdonald/vgr-decode/internal/decoder"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
)

var ErrTruthLoad = errors.New("failed to load truth overlay")

// PlayerTruth is one player's externally recorded end state. Pointer
// fields distinguish "absent" from zero.
type PlayerTruth struct {
	Name   string `json:"name"`
	Hero   string `json:"hero,omitempty"`
	Team   string `json:"team,omitempty"`
	Kills  *int   `json:"kills,omitempty"`
	Deaths *int   `json:"deaths,omitempty"`
}

// MatchTruth is the overlay file for one match, named {match_id}.json.
type MatchTruth struct {
	MatchID string        `json:"match_id"`
	Winner  string        `json:"winner,omitempty"`
	Players []PlayerTruth `json:"players"`
}

// Report summarizes how the decoded result lined up with the overlay.
type Report struct {
	MatchedPlayers   int
	UnmatchedPlayers []string
	HeroFilled       int
	KillMismatches   int
	DeathMismatches  int
	HeroMismatches   int
	WinnerKnown      bool
	WinnerAgrees     bool
}

// Load reads the overlay for a match id from dir. A missing file is not
// an error; overlays are optional by nature.
func Load(dir string, matchID string) (*MatchTruth, error) {
	if dir == "" {
		return nil, nil
	}

	raw, errRead := os.ReadFile(filepath.Join(dir, matchID+".json"))
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return nil, nil
		}

		return nil, errors.Join(errRead, ErrTruthLoad)
	}

	var record MatchTruth
	if errParse := json.Unmarshal(raw, &record); errParse != nil {
		return nil, errors.Join(errParse, ErrTruthLoad)
	}

	return &record, nil
}

// Apply matches overlay players onto decoded players by name and
// produces the agreement report. The only mutation is filling hero
// names the static tables could not resolve.
func Apply(decoded *decoder.DecodedMatch, overlay *MatchTruth) Report {
	var report Report
	if overlay == nil {
		return report
	}

	for _, external := range overlay.Players {
		idx := matchPlayer(decoded.Players, external.Name)
		if idx < 0 {
			report.UnmatchedPlayers = append(report.UnmatchedPlayers, external.Name)

			continue
		}
		report.MatchedPlayers++

		player := &decoded.Players[idx]
		if player.HeroName == "" && external.Hero != "" {
			player.HeroName = external.Hero
			report.HeroFilled++
		} else if external.Hero != "" && !strings.EqualFold(player.HeroName, external.Hero) {
			report.HeroMismatches++
		}
		if external.Kills != nil && *external.Kills != player.Kills {
			report.KillMismatches++
		}
		if external.Deaths != nil && *external.Deaths != player.Deaths {
			report.DeathMismatches++
		}
	}

	if overlay.Winner != "" {
		report.WinnerKnown = true
		report.WinnerAgrees = decoded.Outcome.Decided &&
			parseTeam(overlay.Winner) == decoded.Outcome.Winner
	}

	return report
}

// matchPlayer finds the decoded player whose name best matches an
// overlay name. Overlay sources truncate and restyle names, so exact
// match is tried first, then a normalized prefix match either way.
func matchPlayer(players []decoder.PlayerSummary, name string) int {
	target := normalize(name)
	if target == "" {
		return -1
	}

	for idx, player := range players {
		if normalize(player.Name) == target {
			return idx
		}
	}

	for idx, player := range players {
		decodedName := normalize(player.Name)
		if strings.HasPrefix(decodedName, target) || strings.HasPrefix(target, decodedName) {
			return idx
		}
	}

	return -1
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}

func parseTeam(value string) replay.Team {
	switch strings.ToLower(value) {
	case "left":
		return replay.TeamLeft
	case "right":
		return replay.TeamRight
	default:
		return replay.TeamUnknown
	}
}
