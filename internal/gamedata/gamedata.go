// Package gamedata loads the static lookup tables the decoder consumes:
// hero codes, the item catalog, the per-namespace item-code candidate
// tables and the per-mode structure rosters. The tables are versioned,
// immutable once loaded, and maintained offline; the decoder never
// recomputes any of the confidence judgements baked into them.
package gamedata

import (
	"embed"
	"encoding/hex"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
)

var (
	ErrTableLoad    = errors.New("failed to load static tables")
	ErrTableInvalid = errors.New("invalid static table entry")
)

//go:embed data
var dataFiles embed.FS

// Confidence grades how an item-code mapping was established. The
// grades come from the offline table-maintenance process (debit price
// match, component co-occurrence above 60%, buyer-role plausibility)
// and are passed through to results untouched.
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceTentative
	ConfidenceInferred
	ConfidenceConfirmed
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceConfirmed:
		return "confirmed"
	case ConfidenceInferred:
		return "inferred"
	case ConfidenceTentative:
		return "tentative"
	default:
		return "unknown"
	}
}

func parseConfidence(value string) (Confidence, error) {
	switch value {
	case "confirmed":
		return ConfidenceConfirmed, nil
	case "inferred":
		return ConfidenceInferred, nil
	case "tentative":
		return ConfidenceTentative, nil
	case "", "unknown":
		return ConfidenceUnknown, nil
	default:
		return ConfidenceUnknown, fmt.Errorf("%w: confidence %q", ErrTableInvalid, value)
	}
}

// Namespace selects which disjoint code range an item code belongs to.
// The acquisition record's quantity byte is the disambiguating signal.
type Namespace int

const (
	NamespacePurchase Namespace = iota + 1
	NamespaceCompletion
)

func (n Namespace) String() string {
	switch n {
	case NamespacePurchase:
		return "purchase"
	case NamespaceCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// Hero is one playable character. Fingerprint is the stable 4-byte
// block value used to validate the hero code when a code is unknown.
type Hero struct {
	Code        uint16
	Name        string
	Role        string
	Fingerprint [4]byte
	HasPrint    bool
}

// CatalogItem is one shop item in the canonical catalog.
type CatalogItem struct {
	ID       int
	Name     string
	Category string
	Tier     int
}

// Candidate maps a raw wire code onto a catalog item at a stated
// confidence, within one namespace.
type Candidate struct {
	ItemID     int
	Confidence Confidence
}

// StructureRoster fixes which structure entity ids belong to which side
// for one game mode, including each side's core.
type StructureRoster struct {
	Left      []uint16
	Right     []uint16
	LeftCore  uint16
	RightCore uint16
}

// Side returns the owning side for a structure id, or TeamUnknown when
// the id is not part of the roster.
func (r StructureRoster) Side(structureID uint16) replay.Team {
	for _, id := range r.Left {
		if id == structureID {
			return replay.TeamLeft
		}
	}
	for _, id := range r.Right {
		if id == structureID {
			return replay.TeamRight
		}
	}

	return replay.TeamUnknown
}

// Core returns the core entity id for a side.
func (r StructureRoster) Core(team replay.Team) uint16 {
	switch team {
	case replay.TeamLeft:
		return r.LeftCore
	case replay.TeamRight:
		return r.RightCore
	default:
		return 0
	}
}

// Tables is the full immutable static data set. Replace the whole value
// between matches if hot reloading is ever needed; never mutate one
// mid-match.
type Tables struct {
	Version    string
	Heroes     map[uint16]Hero
	Items      map[int]CatalogItem
	Purchase   map[uint16]Candidate
	Completion map[uint16]Candidate
	Rosters    map[replay.Mode]StructureRoster
}

// HeroByCode resolves a hero code, optionally validating against the
// block fingerprint when the direct lookup fails.
func (t *Tables) HeroByCode(code uint16, fingerprint [4]byte) (Hero, bool) {
	if hero, ok := t.Heroes[code]; ok {
		return hero, true
	}

	// Unknown code: fall back to fingerprint identity.
	var zero [4]byte
	if fingerprint == zero {
		return Hero{}, false
	}
	for _, hero := range t.Heroes {
		if hero.HasPrint && hero.Fingerprint == fingerprint {
			return hero, true
		}
	}

	return Hero{}, false
}

// Lookup resolves a raw item code within a namespace.
func (t *Tables) Lookup(namespace Namespace, code uint16) (Candidate, bool) {
	switch namespace {
	case NamespaceCompletion:
		candidate, ok := t.Completion[code]

		return candidate, ok
	default:
		candidate, ok := t.Purchase[code]

		return candidate, ok
	}
}

// Roster returns the structure roster for a mode, falling back to the
// 3v3 roster for modes played on the small map.
func (t *Tables) Roster(mode replay.Mode) (StructureRoster, bool) {
	if roster, ok := t.Rosters[mode]; ok {
		return roster, true
	}

	fallback := replay.Mode3v3Ranked
	if mode.TeamSize() == 5 {
		fallback = replay.Mode5v5Ranked
	}
	roster, ok := t.Rosters[fallback]

	return roster, ok
}

// Raw yaml shapes.
type tablesFile struct {
	Version string `yaml:"version"`
}

type heroFile struct {
	Heroes []struct {
		Code        uint16 `yaml:"code"`
		Name        string `yaml:"name"`
		Role        string `yaml:"role"`
		Fingerprint string `yaml:"fingerprint,omitempty"`
	} `yaml:"heroes"`
}

type itemFile struct {
	Items []struct {
		ID       int    `yaml:"id"`
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
		Tier     int    `yaml:"tier"`
	} `yaml:"items"`
	Candidates struct {
		Purchase   []candidateEntry `yaml:"purchase"`
		Completion []candidateEntry `yaml:"completion"`
	} `yaml:"candidates"`
}

type candidateEntry struct {
	Code       uint16 `yaml:"code"`
	Item       int    `yaml:"item"`
	Confidence string `yaml:"confidence"`
}

type rosterFile struct {
	Rosters []struct {
		Mode      string   `yaml:"mode"`
		Left      []uint16 `yaml:"left"`
		Right     []uint16 `yaml:"right"`
		LeftCore  uint16   `yaml:"left_core"`
		RightCore uint16   `yaml:"right_core"`
	} `yaml:"rosters"`
}

// Load parses the embedded tables. Call once at startup; the result is
// safe for concurrent readers.
func Load() (*Tables, error) {
	tables := &Tables{
		Heroes:     map[uint16]Hero{},
		Items:      map[int]CatalogItem{},
		Purchase:   map[uint16]Candidate{},
		Completion: map[uint16]Candidate{},
		Rosters:    map[replay.Mode]StructureRoster{},
	}

	var meta tablesFile
	if err := readYAML("data/tables.yaml", &meta); err != nil {
		return nil, err
	}
	tables.Version = meta.Version

	var heroes heroFile
	if err := readYAML("data/heroes.yaml", &heroes); err != nil {
		return nil, err
	}
	for _, entry := range heroes.Heroes {
		hero := Hero{Code: entry.Code, Name: entry.Name, Role: entry.Role}
		if entry.Fingerprint != "" {
			raw, errHex := hex.DecodeString(entry.Fingerprint)
			if errHex != nil || len(raw) != 4 {
				return nil, fmt.Errorf("%w: hero %s fingerprint", ErrTableInvalid, entry.Name)
			}
			copy(hero.Fingerprint[:], raw)
			hero.HasPrint = true
		}
		tables.Heroes[entry.Code] = hero
	}

	var items itemFile
	if err := readYAML("data/items.yaml", &items); err != nil {
		return nil, err
	}
	for _, entry := range items.Items {
		tables.Items[entry.ID] = CatalogItem(entry)
	}
	for _, entry := range items.Candidates.Purchase {
		candidate, errEntry := makeCandidate(entry, tables.Items)
		if errEntry != nil {
			return nil, errEntry
		}
		tables.Purchase[entry.Code] = candidate
	}
	for _, entry := range items.Candidates.Completion {
		candidate, errEntry := makeCandidate(entry, tables.Items)
		if errEntry != nil {
			return nil, errEntry
		}
		tables.Completion[entry.Code] = candidate
	}

	var rosters rosterFile
	if err := readYAML("data/structures.yaml", &rosters); err != nil {
		return nil, err
	}
	for _, entry := range rosters.Rosters {
		tables.Rosters[replay.Mode(entry.Mode)] = StructureRoster{
			Left:      entry.Left,
			Right:     entry.Right,
			LeftCore:  entry.LeftCore,
			RightCore: entry.RightCore,
		}
	}

	return tables, nil
}

func makeCandidate(entry candidateEntry, catalog map[int]CatalogItem) (Candidate, error) {
	confidence, errConfidence := parseConfidence(entry.Confidence)
	if errConfidence != nil {
		return Candidate{}, errConfidence
	}
	if _, known := catalog[entry.Item]; !known {
		return Candidate{}, fmt.Errorf("%w: candidate code %d references unknown item %d",
			ErrTableInvalid, entry.Code, entry.Item)
	}

	return Candidate{ItemID: entry.Item, Confidence: confidence}, nil
}

func readYAML(name string, out any) error {
	raw, errRead := dataFiles.ReadFile(name)
	if errRead != nil {
		return errors.Join(errRead, ErrTableLoad)
	}
	if errParse := yaml.Unmarshal(raw, out); errParse != nil {
		return errors.Join(errParse, ErrTableLoad)
	}

	return nil
}
