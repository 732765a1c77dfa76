package main

import (
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/store"
	"github.com/leighmacdonald/vgr-decode/internal/truth"
	"github.com/leighmacdonald/vgr-decode/internal/watch"
)

var (
	watchDebug  bool
	watchSettle time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and decode matches as they finish",
		Long: `Monitor the replay directory and run the decode pipeline on each
match once its recording has settled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func init() { //nolint:gochecknoinits
	watchCmd.Flags().BoolVarP(&watchDebug, "debug", "d", false, "Enable debug logging")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle,
		"Quiet period before a recording counts as finished")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, cleanup, errSetup := setup(watchDebug)
	defer cleanup()
	if errSetup != nil {
		return errSetup
	}

	dir := env.config.ReplayDir
	if len(args) > 0 {
		dir = args[0]
	}

	ctx := cmd.Context()

	database, errDB := store.Open(ctx, env.config.DBPath, true)
	if errDB != nil {
		return errors.Join(errDB, errApp)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Error closing database", slog.String("error", err.Error()))
		}
	}()
	matches := store.New(database)

	completed := make(chan string)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case stem := <-completed:
				name := filepath.Base(stem)
				matchID, _, errName := replay.SplitReplayName(name)
				if errName != nil {
					continue
				}

				decoded, errDecode := env.decoder.DecodePath(ctx, stem+".0.vgr")
				if errDecode != nil {
					slog.Error("Failed to decode settled replay",
						slog.String("replay", name), slog.String("error", errDecode.Error()))

					continue
				}

				overlay, _ := truth.Load(env.config.TruthDir, matchID.String())
				truth.Apply(decoded, overlay)

				if errSave := matches.SaveMatch(ctx, decoded, env.tables.Version); errSave != nil {
					slog.Error("Failed to save match",
						slog.String("replay", name), slog.String("error", errSave.Error()))

					continue
				}
				slog.Info("Decoded settled match",
					slog.String("replay", name),
					slog.String("winner", decoded.Winner().String()))
			}
		}
	}()

	slog.Info("Watching for replays", slog.String("dir", dir))

	return watch.Watch(ctx, dir, watchSettle, completed)
}
