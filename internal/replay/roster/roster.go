// Package roster extracts player identity blocks from frame 0. These
// fixed-layout blocks are the only place the format names its players;
// every downstream correlation keys off the entity ids found here.
package roster

import (
	"errors"
	"fmt"
	"math/bits"
	"regexp"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/replay/entity"
)

var ErrMalformedPlayerBlock = errors.New("malformed player block")

// Two marker variants occur in the wild and are equivalent.
var blockMarkers = [][]byte{
	{0xDA, 0x03, 0xEE},
	{0xE0, 0x03, 0xEE},
}

// Field offsets relative to the 3-byte marker. The block is ~226 bytes;
// the layout was recovered by cross-correlating known rosters against
// raw bytes, not from any published format.
const (
	offsetName        = 0x03
	offsetEntityID    = 0xA5
	offsetHeroCode    = 0xA9
	offsetFingerprint = 0xAB
	offsetTeam        = 0xD5
	blockSize         = 0xE2

	// maxNameLen bounds the printable-run scan so a corrupt block can
	// never run away.
	maxNameLen = 30
	minNameLen = 3
)

var uuidRex = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// Extract pulls one PlayerRecord per marker hit out of frame 0.
// The roster is returned even on error so callers can decide whether a
// short or partially invalid roster is usable for their purposes.
func Extract(frame0 []byte, mode replay.Mode) ([]replay.PlayerRecord, error) {
	var (
		players  []replay.PlayerRecord
		seen     = map[string]bool{}
		scanFrom = 0
		badTeam  error
	)

	for {
		pos, markerLen := nextMarker(frame0, scanFrom)
		if pos < 0 {
			break
		}
		scanFrom = pos + 1

		name, ok := readName(frame0, pos+markerLen)
		if !ok || seen[name] {
			continue
		}

		record := replay.PlayerRecord{Name: name}

		if pos+offsetEntityID+2 <= len(frame0) {
			// The block stores the id byte-swapped relative to how the
			// event stream references it; the swapped form is canonical.
			raw := uint16(frame0[pos+offsetEntityID]) | uint16(frame0[pos+offsetEntityID+1])<<8
			record.EntityID = bits.ReverseBytes16(raw)
		}

		if pos+offsetHeroCode+2 <= len(frame0) {
			record.HeroCode = uint16(frame0[pos+offsetHeroCode]) | uint16(frame0[pos+offsetHeroCode+1])<<8
		}

		if pos+offsetFingerprint+4 <= len(frame0) {
			copy(record.Fingerprint[:], frame0[pos+offsetFingerprint:pos+offsetFingerprint+4])
		}

		if pos+offsetTeam < len(frame0) {
			switch frame0[pos+offsetTeam] {
			case 1:
				record.Team = replay.TeamLeft
			case 2:
				record.Team = replay.TeamRight
			default:
				badTeam = fmt.Errorf("%w: team byte %d for %s",
					ErrMalformedPlayerBlock, frame0[pos+offsetTeam], name)
			}
		}

		seen[name] = true
		players = append(players, record)
	}

	assignUUIDs(frame0, players)

	if badTeam != nil {
		return players, badTeam
	}

	if expected := mode.RosterSize(); len(players) < expected {
		return players, fmt.Errorf("%w: found %d of %d players",
			ErrMalformedPlayerBlock, len(players), expected)
	}

	return players, nil
}

// Validate checks the invariants every complete roster must satisfy:
// entity ids pairwise distinct and all inside the player range.
func Validate(players []replay.PlayerRecord) error {
	ids := map[uint16]string{}
	for _, player := range players {
		if entity.Classify(player.EntityID) != entity.Player {
			return fmt.Errorf("%w: entity id %d for %s outside player range",
				ErrMalformedPlayerBlock, player.EntityID, player.Name)
		}
		if other, dup := ids[player.EntityID]; dup {
			return fmt.Errorf("%w: entity id %d shared by %s and %s",
				ErrMalformedPlayerBlock, player.EntityID, other, player.Name)
		}
		ids[player.EntityID] = player.Name
	}

	return nil
}

// nextMarker finds the earliest occurrence of either marker variant.
func nextMarker(data []byte, from int) (int, int) {
	best := -1
	bestLen := 0

	for _, marker := range blockMarkers {
		idx := indexFrom(data, marker, from)
		if idx >= 0 && (best == -1 || idx < best) {
			best = idx
			bestLen = len(marker)
		}
	}

	return best, bestLen
}

func indexFrom(data, pattern []byte, from int) int {
	if from >= len(data) {
		return -1
	}
	for i := from; i+len(pattern) <= len(data); i++ {
		if data[i] == pattern[0] && data[i+1] == pattern[1] && data[i+2] == pattern[2] {
			return i
		}
	}

	return -1
}

// readName decodes the variable-length printable run holding the player
// name. The run ends at the first non-printable byte.
func readName(data []byte, start int) (string, bool) {
	end := start
	for end < len(data) && end < start+maxNameLen {
		if data[end] < 0x20 || data[end] > 0x7E {
			break
		}
		end++
	}

	name := string(data[start:end])
	if len(name) < minNameLen {
		return "", false
	}
	// Mode tags share the string pool with names.
	if len(name) >= 8 && name[:8] == "GameMode" {
		return "", false
	}

	return name, true
}

// assignUUIDs maps the account UUIDs found in frame 0's string pool
// onto players by position. UUID ordering tracks block ordering.
func assignUUIDs(frame0 []byte, players []replay.PlayerRecord) {
	seen := map[string]bool{}
	var uuids []string
	for _, raw := range uuidRex.FindAll(frame0, -1) {
		value := string(raw)
		if !seen[value] {
			seen[value] = true
			uuids = append(uuids, value)
		}
	}

	for i := range players {
		if i < len(uuids) {
			players[i].UUID = uuids[i]
		}
	}
}
