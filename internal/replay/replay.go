// Package replay holds the core data model for a decoded match and the
// frame assembler that turns a set of raw .vgr frame buffers into one
// ordered logical byte stream.
package replay

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrIncompleteMatch = errors.New("incomplete match")
	ErrEmptyMatch      = errors.New("no frames provided")
)

// FrameSeconds is the fixed wall-clock span covered by a single frame
// file. The client flushes one frame on a fixed cadence, so frame count
// alone gives a coarse duration estimate.
const FrameSeconds = 6.0

type Team int

const (
	TeamUnknown Team = iota
	TeamLeft
	TeamRight
)

func (t Team) String() string {
	switch t {
	case TeamLeft:
		return "left"
	case TeamRight:
		return "right"
	default:
		return "unknown"
	}
}

// Opposite returns the other side, or TeamUnknown for TeamUnknown.
func (t Team) Opposite() Team {
	switch t {
	case TeamLeft:
		return TeamRight
	case TeamRight:
		return TeamLeft
	default:
		return TeamUnknown
	}
}

// Mode is the raw game mode tag found in frame 0, eg. "GameMode_5v5_Ranked".
type Mode string

const (
	ModeUnknown     Mode = ""
	Mode3v3Ranked   Mode = "GameMode_HF_Ranked"
	Mode3v3Casual   Mode = "GameMode_HF_Casual"
	Mode5v5Ranked   Mode = "GameMode_5v5_Ranked"
	Mode5v5Casual   Mode = "GameMode_5v5_Casual"
	ModeBlitz       Mode = "GameMode_Blitz"
	ModeARAL        Mode = "GameMode_ARAL"
	ModeBattleRoyal Mode = "GameMode_BR"
)

// TeamSize returns players per side. Everything that is not an explicit
// 5v5 mode runs on the 3v3 map.
func (m Mode) TeamSize() int {
	switch m {
	case Mode5v5Ranked, Mode5v5Casual:
		return 5
	default:
		return 3
	}
}

// RosterSize is the total expected player block count for the mode.
func (m Mode) RosterSize() int {
	return m.TeamSize() * 2
}

// Frame is one fragment file of the recorded event log.
type Frame struct {
	Index int
	Data  []byte
}

// PlayerRecord is the immutable identity block extracted from frame 0.
// EntityID is the id the event stream uses to reference the player.
type PlayerRecord struct {
	EntityID    uint16
	Name        string
	UUID        string
	Team        Team
	HeroCode    uint16
	Fingerprint [4]byte
}

// Match is an ordered sequence of frames plus the identity data pulled
// from frame 0. Partial is set when interior frames are missing; later
// stages must tolerate the gaps.
type Match struct {
	MatchID   uuid.UUID
	SessionID uuid.UUID
	Name      string
	Mode      Mode
	Frames    []Frame
	Players   []PlayerRecord
	Partial   bool
}

// Duration is the coarse match length in seconds. It derives from the
// highest frame index so gaps in a partial match do not shrink the
// clock.
func (m Match) Duration() float64 {
	if len(m.Frames) == 0 {
		return 0
	}

	return float64(m.Frames[len(m.Frames)-1].Index+1) * FrameSeconds
}

// PlayerByEntity returns the roster entry for an entity id, if any.
func (m Match) PlayerByEntity(entityID uint16) (PlayerRecord, bool) {
	for _, player := range m.Players {
		if player.EntityID == entityID {
			return player, true
		}
	}

	return PlayerRecord{}, false
}

// TeamOf maps an entity id onto its side via the roster.
func (m Match) TeamOf(entityID uint16) Team {
	if player, ok := m.PlayerByEntity(entityID); ok {
		return player.Team
	}

	return TeamUnknown
}

// Assemble orders the provided frames by index and builds a Match.
// Frame 0 is mandatory since it is the only frame carrying player
// identity; its absence is fatal. Gaps elsewhere mark the match partial
// and processing continues.
func Assemble(frames []Frame) (Match, error) {
	if len(frames) == 0 {
		return Match{}, ErrEmptyMatch
	}

	ordered := make([]Frame, len(frames))
	copy(ordered, frames)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	if ordered[0].Index != 0 {
		return Match{}, fmt.Errorf("frame 0 missing: %w", ErrIncompleteMatch)
	}

	match := Match{Frames: ordered}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Index == ordered[i-1].Index+1 {
			continue
		}
		match.Partial = true

		break
	}

	return match, nil
}
