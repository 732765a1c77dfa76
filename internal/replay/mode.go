package replay

import (
	"regexp"
)

var modeRex = regexp.MustCompile(`GameMode_[A-Za-z0-9_]+`)

var knownModes = []Mode{
	Mode3v3Ranked, Mode3v3Casual,
	Mode5v5Ranked, Mode5v5Casual,
	ModeBlitz, ModeARAL, ModeBattleRoyal,
}

// DetectMode scans frame 0 for the game mode tag. The tag is stored as
// a plain ASCII string so a regexp over the raw bytes is enough. An
// unrecognized GameMode_* string is still returned verbatim so callers
// can at least log it.
func DetectMode(frame0 []byte) Mode {
	match := modeRex.Find(frame0)
	if match == nil {
		return ModeUnknown
	}

	tag := Mode(match)
	for _, known := range knownModes {
		if tag == known {
			return known
		}
	}

	return tag
}

// MapName returns the display map name for a mode.
func MapName(mode Mode) string {
	switch mode {
	case Mode5v5Ranked, Mode5v5Casual:
		return "Sovereign Rise"
	case Mode3v3Ranked, Mode3v3Casual, ModeBlitz, ModeARAL:
		return "Halcyon Fold"
	default:
		return "Unknown"
	}
}
