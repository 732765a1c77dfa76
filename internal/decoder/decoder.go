// Package decoder runs the full pipeline over one replay: frame
// assembly, roster extraction, stream tokenizing, scoreline
// correlation, item resolution and outcome detection.
package decoder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
	"github.com/leighmacdonald/vgr-decode/internal/items"
	"github.com/leighmacdonald/vgr-decode/internal/kda"
	"github.com/leighmacdonald/vgr-decode/internal/outcome"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/replay/events"
	"github.com/leighmacdonald/vgr-decode/internal/replay/roster"
)

var ErrDecode = errors.New("failed to decode replay")

type Config struct {
	KDA     kda.Config
	Outcome outcome.Config
}

func DefaultConfig() Config {
	return Config{
		KDA:     kda.DefaultConfig(),
		Outcome: outcome.DefaultConfig(),
	}
}

// PlayerSummary is the per-player end state of a decoded match.
type PlayerSummary struct {
	replay.PlayerRecord
	HeroName  string
	HeroRole  string
	Kills     int
	Deaths    int
	GoldSpent float64
	Items     []items.Entry
}

// ScanStats summarizes the tokenizer pass for diagnostics output.
type ScanStats struct {
	Actions      int
	Records      int
	SkippedBytes int
	Desyncs      int
}

// DecodedMatch is the complete pipeline output for one replay.
type DecodedMatch struct {
	Match         replay.Match
	Players       []PlayerSummary
	Timeline      items.Timeline
	Outcome       outcome.Verdict
	Scan          ScanStats
	Discrepancies int
	DecodedAt     time.Time
	Elapsed       time.Duration
}

// Winner is a convenience accessor that never guesses.
func (d *DecodedMatch) Winner() replay.Team {
	if !d.Outcome.Decided {
		return replay.TeamUnknown
	}

	return d.Outcome.Winner
}

type Decoder struct {
	tables    *gamedata.Tables
	tokenizer *events.Tokenizer
	config    Config
}

func New(tables *gamedata.Tables, config Config) *Decoder {
	return &Decoder{
		tables:    tables,
		tokenizer: events.NewTokenizer(),
		config:    config,
	}
}

// DecodePath loads a replay from a frame file or directory and decodes
// it.
func (d *Decoder) DecodePath(ctx context.Context, path string) (*DecodedMatch, error) {
	match, errLoad := replay.Load(path)
	if errLoad != nil {
		return nil, errors.Join(errLoad, ErrDecode)
	}

	return d.Decode(ctx, match)
}

// Decode runs every stage over an assembled match. The context is
// checked between stages so batch runs cancel promptly.
func (d *Decoder) Decode(ctx context.Context, match replay.Match) (*DecodedMatch, error) {
	started := time.Now()

	if len(match.Frames) == 0 || match.Frames[0].Index != 0 {
		return nil, errors.Join(replay.ErrIncompleteMatch, ErrDecode)
	}

	players, errRoster := roster.Extract(match.Frames[0].Data, match.Mode)
	if errRoster != nil && !errors.Is(errRoster, roster.ErrMalformedPlayerBlock) {
		return nil, errors.Join(errRoster, ErrDecode)
	}
	if errRoster != nil {
		slog.Warn("Roster extracted with malformed blocks",
			slog.String("match", match.Name),
			slog.String("error", errRoster.Error()))
	}
	match.Players = players

	if errCtx := ctx.Err(); errCtx != nil {
		return nil, errors.Join(errCtx, ErrDecode)
	}

	scan := d.tokenizer.ScanMatch(match)

	if errCtx := ctx.Err(); errCtx != nil {
		return nil, errors.Join(errCtx, ErrDecode)
	}

	scores := kda.Correlate(match, scan.Records, d.config.KDA)
	timeline := items.Resolve(d.tables, scan.Records)

	verdict := outcome.Verdict{}
	if tableRoster, ok := d.tables.Roster(match.Mode); ok {
		verdict = outcome.Detect(tableRoster, scores.StructureDeaths, d.config.Outcome)
	}

	decoded := &DecodedMatch{
		Match:    match,
		Timeline: timeline,
		Outcome:  verdict,
		Scan: ScanStats{
			Actions:      len(scan.Actions),
			Records:      len(scan.Records),
			SkippedBytes: scan.SkippedBytes,
			Desyncs:      scan.Desyncs,
		},
		Discrepancies: scores.Discrepancies,
		DecodedAt:     started,
		Elapsed:       time.Since(started),
	}

	for _, player := range match.Players {
		summary := PlayerSummary{
			PlayerRecord: player,
			GoldSpent:    -timeline.DebitsFor(player.EntityID),
			Items:        timeline.ForEntity(player.EntityID),
		}
		if hero, found := d.tables.HeroByCode(player.HeroCode, player.Fingerprint); found {
			summary.HeroName = hero.Name
			summary.HeroRole = hero.Role
		}
		if line, ok := scores.Lines[player.EntityID]; ok {
			summary.Kills = line.Kills
			summary.Deaths = line.Deaths
		}
		decoded.Players = append(decoded.Players, summary)
	}

	return decoded, nil
}
