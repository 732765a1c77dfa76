// Package store persists decoded matches to sqlite so batch runs are
// resumable and results are queryable after the fact.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	_ "modernc.org/sqlite"

	"github.com/leighmacdonald/vgr-decode/internal/decoder"
	"github.com/leighmacdonald/vgr-decode/internal/replay"
)

// MigrationAction is the type of migration to perform.
type MigrationAction int

const (
	// MigrateUp Fully upgrades the schema.
	MigrateUp MigrationAction = iota
	// MigrateDn Fully downgrades the schema.
	MigrateDn
	// MigrateUpOne Upgrade the schema by one revision.
	MigrateUpOne
	// MigrateDownOne Downgrade the schema by one revision.
	MigrateDownOne
)

var (
	//go:embed migrations
	migrations embed.FS

	ErrDBConnect = errors.New("db connect error")
	ErrMigrate   = errors.New("failed to migrate db schema")
	ErrQuery     = errors.New("failed to execute query")
)

func configureConnection(ctx context.Context, connection *sql.DB) error {
	parallelism := min(8, max(2, runtime.GOMAXPROCS(0)))
	connection.SetMaxOpenConns(parallelism)
	connection.SetMaxIdleConns(parallelism)
	connection.SetConnMaxLifetime(0)
	connection.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA main.synchronous = NORMAL",
		"PRAGMA main.cache_size = -32768",
	}
	for _, pragma := range pragmas {
		if _, errPragma := connection.ExecContext(ctx, pragma); errPragma != nil {
			return errors.Join(errPragma, ErrDBConnect)
		}
	}

	return nil
}

func Open(ctx context.Context, path string, autoMigrate bool) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}

	path += "?cache=private"
	connection, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Join(err, ErrDBConnect)
	}

	if errConfig := configureConnection(ctx, connection); errConfig != nil {
		return nil, errConfig
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := connection.PingContext(pingCtx); err != nil {
		connection.Close()

		return nil, errors.Join(err, ErrDBConnect)
	}

	if autoMigrate {
		if errMigrate := Migrate(connection, MigrateUp); errMigrate != nil {
			return nil, errors.Join(errMigrate, ErrDBConnect)
		}
	}

	return connection, nil
}

func Migrate(conn *sql.DB, action MigrationAction) error {
	driver, errDriver := sqlite.WithInstance(conn, &sqlite.Config{})
	if errDriver != nil {
		return errors.Join(errDriver, ErrMigrate)
	}

	source, errHTTPFS := httpfs.New(http.FS(migrations), "migrations")
	if errHTTPFS != nil {
		return errors.Join(errHTTPFS, ErrMigrate)
	}

	migrator, errMigrateInstance := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if errMigrateInstance != nil {
		return errors.Join(errMigrateInstance, ErrMigrate)
	}

	var errMigration error

	switch action {
	case MigrateUpOne:
		errMigration = migrator.Steps(1)
	case MigrateDn:
		errMigration = migrator.Down()
	case MigrateDownOne:
		errMigration = migrator.Steps(-1)
	case MigrateUp:
		fallthrough
	default:
		errMigration = migrator.Up()
	}

	if errMigration != nil && !errors.Is(errMigration, migrate.ErrNoChange) {
		return errors.Join(errMigration, ErrMigrate)
	}

	return nil
}

// Store wraps the connection with the match persistence queries.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// MatchRow is the stored header for one decoded match.
type MatchRow struct {
	MatchID       string
	SessionID     string
	Mode          string
	MapName       string
	Frames        int
	Duration      float64
	Partial       bool
	Winner        string
	DestroyedSide string
	Discrepancies int
	DecodedAt     time.Time
}

// SaveMatch upserts a decoded match with its players and item
// timelines. Saving the same replay twice overwrites rather than
// duplicates.
func (s *Store) SaveMatch(ctx context.Context, decoded *decoder.DecodedMatch, tablesVersion string) error {
	transaction, errBegin := s.db.BeginTx(ctx, nil)
	if errBegin != nil {
		return errors.Join(errBegin, ErrQuery)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	match := decoded.Match
	matchID := match.MatchID.String()
	sessionID := match.SessionID.String()

	const upsertMatch = `
		INSERT INTO match (
			match_id, session_id, mode, map, frames, duration, partial,
			winner, destroyed_side, destroyed_core, discrepancies,
			skipped_bytes, desyncs, tables_version, decoded_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id, session_id) DO UPDATE SET
			mode = excluded.mode, map = excluded.map,
			frames = excluded.frames, duration = excluded.duration,
			partial = excluded.partial, winner = excluded.winner,
			destroyed_side = excluded.destroyed_side,
			destroyed_core = excluded.destroyed_core,
			discrepancies = excluded.discrepancies,
			skipped_bytes = excluded.skipped_bytes,
			desyncs = excluded.desyncs,
			tables_version = excluded.tables_version,
			decoded_at = excluded.decoded_at`

	winner := replay.TeamUnknown
	destroyedSide := replay.TeamUnknown
	var destroyedCore uint16
	if decoded.Outcome.Decided {
		winner = decoded.Outcome.Winner
		destroyedSide = decoded.Outcome.DestroyedSide
		destroyedCore = decoded.Outcome.DestroyedCore
	}

	if _, errExec := transaction.ExecContext(ctx, upsertMatch,
		matchID, sessionID, string(match.Mode), replay.MapName(match.Mode),
		len(match.Frames), match.Duration(), match.Partial,
		winner.String(), destroyedSide.String(), destroyedCore,
		decoded.Discrepancies, decoded.Scan.SkippedBytes, decoded.Scan.Desyncs,
		tablesVersion, decoded.DecodedAt.UTC(),
	); errExec != nil {
		return errors.Join(errExec, ErrQuery)
	}

	// Replace players/items wholesale; the upsert above keeps the key.
	for _, table := range []string{"player_item", "match_player"} {
		if _, errDel := transaction.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE match_id = ? AND session_id = ?`,
			matchID, sessionID); errDel != nil {
			return errors.Join(errDel, ErrQuery)
		}
	}

	const insertPlayer = `
		INSERT INTO match_player (
			match_id, session_id, entity_id, name, uuid, team,
			hero_code, hero_name, hero_role, kills, deaths, gold_spent
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	const insertItem = `
		INSERT INTO player_item (
			match_id, session_id, entity_id, seq, code, namespace,
			item_id, item_name, confidence, acquired_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, player := range decoded.Players {
		if _, errExec := transaction.ExecContext(ctx, insertPlayer,
			matchID, sessionID, player.EntityID, player.Name, player.UUID,
			player.Team.String(), player.HeroCode, player.HeroName,
			player.HeroRole, player.Kills, player.Deaths, player.GoldSpent,
		); errExec != nil {
			return errors.Join(errExec, ErrQuery)
		}

		for seq, entry := range player.Items {
			var itemID any
			if entry.Resolved {
				itemID = entry.ItemID
			}
			if _, errExec := transaction.ExecContext(ctx, insertItem,
				matchID, sessionID, player.EntityID, seq, entry.Code,
				entry.Namespace.String(), itemID, entry.ItemName,
				entry.Confidence.String(), entry.Timestamp,
			); errExec != nil {
				return errors.Join(errExec, ErrQuery)
			}
		}
	}

	if errCommit := transaction.Commit(); errCommit != nil {
		return errors.Join(errCommit, ErrQuery)
	}

	return nil
}

// HasMatch reports whether a replay has already been decoded and saved.
func (s *Store) HasMatch(ctx context.Context, matchID string, sessionID string) (bool, error) {
	var count int
	errRow := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM match WHERE match_id = ? AND session_id = ?`,
		matchID, sessionID).Scan(&count)
	if errRow != nil {
		return false, errors.Join(errRow, ErrQuery)
	}

	return count > 0, nil
}

// RecentMatches returns stored match headers newest first.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchRow, error) {
	rows, errQuery := s.db.QueryContext(ctx, `
		SELECT match_id, session_id, mode, map, frames, duration,
		       partial, winner, destroyed_side, discrepancies, decoded_at
		FROM match
		ORDER BY decoded_at DESC
		LIMIT ?`, limit)
	if errQuery != nil {
		return nil, errors.Join(errQuery, ErrQuery)
	}
	defer rows.Close()

	var matches []MatchRow
	for rows.Next() {
		var row MatchRow
		if errScan := rows.Scan(&row.MatchID, &row.SessionID, &row.Mode,
			&row.MapName, &row.Frames, &row.Duration, &row.Partial,
			&row.Winner, &row.DestroyedSide, &row.Discrepancies,
			&row.DecodedAt); errScan != nil {
			return nil, errors.Join(errScan, ErrQuery)
		}
		matches = append(matches, row)
	}
	if errRows := rows.Err(); errRows != nil {
		return nil, errors.Join(errRows, ErrQuery)
	}

	return matches, nil
}
