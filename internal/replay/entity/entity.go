// Package entity classifies raw entity identifiers from the event
// stream into semantic classes purely by numeric range. The format
// never labels entities; the ranges were established empirically and
// hold across every sampled replay.
package entity

// Class is the semantic category of an entity id.
type Class int

const (
	System Class = iota
	Infrastructure
	Structure
	Minion
	Player
	Special
)

func (c Class) String() string {
	switch c {
	case System:
		return "system"
	case Infrastructure:
		return "infrastructure"
	case Structure:
		return "structure"
	case Minion:
		return "minion"
	case Player:
		return "player"
	default:
		return "special"
	}
}

const (
	infrastructureMax = 999
	structureMax      = 19999
	minionMax         = 49999
	playerMax         = 59999
)

// Classify maps an entity id to its class. Ids above the player ceiling
// are Special unless a mode roster claims them as structures; that
// cross-check belongs to the roster tables, not here.
func Classify(entityID uint16) Class {
	switch {
	case entityID == 0:
		return System
	case entityID <= infrastructureMax:
		return Infrastructure
	case entityID <= structureMax:
		return Structure
	case entityID <= minionMax:
		return Minion
	case entityID <= playerMax:
		return Player
	default:
		return Special
	}
}
