package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leighmacdonald/vgr-decode/internal/replay"
	"github.com/leighmacdonald/vgr-decode/internal/store"
	"github.com/leighmacdonald/vgr-decode/internal/truth"
)

var (
	batchDebug bool
	batchForce bool
	batchTruth string

	batchCmd = &cobra.Command{
		Use:   "batch [dir]",
		Short: "Decode every replay under a directory",
		Long: `Walk a directory tree, decode every replay found and persist the
results. Already-decoded replays are skipped unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBatch,
	}
)

func init() { //nolint:gochecknoinits
	batchCmd.Flags().BoolVarP(&batchDebug, "debug", "d", false, "Enable debug logging")
	batchCmd.Flags().BoolVarP(&batchForce, "force", "f", false, "Redecode replays already in the database")
	batchCmd.Flags().StringVar(&batchTruth, "truth", "", "Ground-truth overlay directory")
}

func runBatch(cmd *cobra.Command, args []string) error {
	env, cleanup, errSetup := setup(batchDebug)
	defer cleanup()
	if errSetup != nil {
		return errSetup
	}

	root := env.config.ReplayDir
	if len(args) > 0 {
		root = args[0]
	}

	ctx := cmd.Context()

	found, errFind := replay.FindMatches(root)
	if errFind != nil {
		return errFind
	}
	if len(found) == 0 {
		slog.Info("No replays found", slog.String("dir", root))

		return nil
	}

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

	truthDir := env.config.TruthDir
	if batchTruth != "" {
		truthDir = batchTruth
	}

	var decoded, skipped, failed, discrepancies atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, env.config.Parallelism))

	for name, files := range found {
		group.Go(func() error {
			matchID, sessionID, errName := replay.SplitReplayName(name)
			if errName != nil {
				slog.Warn("Skipping unparseable replay name", slog.String("replay", name))
				skipped.Add(1)

				return nil
			}

			if !batchForce {
				stored, errHas := matches.HasMatch(groupCtx, matchID.String(), sessionID.String())
				if errHas != nil {
					return errHas
				}
				if stored {
					skipped.Add(1)

					return nil
				}
			}

			frames, errFrames := replay.LoadFrames(files)
			if errFrames != nil {
				slog.Error("Failed to read frames",
					slog.String("replay", name), slog.String("error", errFrames.Error()))
				failed.Add(1)

				return nil
			}

			match, errAssemble := replay.Assemble(frames)
			if errAssemble != nil {
				slog.Error("Failed to assemble match",
					slog.String("replay", name), slog.String("error", errAssemble.Error()))
				failed.Add(1)

				return nil
			}
			match.Name = name
			match.MatchID = matchID
			match.SessionID = sessionID
			match.Mode = replay.DetectMode(match.Frames[0].Data)

			result, errDecode := env.decoder.Decode(groupCtx, match)
			if errDecode != nil {
				if groupCtx.Err() != nil {
					return errDecode
				}
				slog.Error("Failed to decode replay",
					slog.String("replay", name), slog.String("error", errDecode.Error()))
				failed.Add(1)

				return nil
			}

			overlay, errTruth := truth.Load(truthDir, matchID.String())
			if errTruth != nil {
				slog.Warn("Truth overlay unreadable", slog.String("error", errTruth.Error()))
			}
			truth.Apply(result, overlay)

			if errSave := matches.SaveMatch(groupCtx, result, env.tables.Version); errSave != nil {
				return errSave
			}
			decoded.Add(1)
			discrepancies.Add(int64(result.Discrepancies))
			slog.Info("Decoded replay",
				slog.String("replay", name),
				slog.String("winner", result.Winner().String()),
				slog.Duration("elapsed", result.Elapsed))

			return nil
		})
	}

	if errWait := group.Wait(); errWait != nil {
		return errWait
	}

	fmt.Println(renderBatchSummary( //nolint:forbidigo
		int(decoded.Load()), int(skipped.Load()), int(failed.Load()), int(discrepancies.Load())))

	return nil
}
