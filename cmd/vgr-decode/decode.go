package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leighmacdonald/vgr-decode/internal/store"
	"github.com/leighmacdonald/vgr-decode/internal/truth"
)

var (
	decodeDebug bool
	decodeSave  bool
	decodeItems bool
	decodeTruth string

	decodeCmd = &cobra.Command{
		Use:   "decode <path>",
		Short: "Decode a single replay",
		Long: `Decode one replay from a frame file or a directory holding its frames
and print the match result.`,
		Args: cobra.ExactArgs(1),
		RunE: runDecode,
	}
)

func init() { //nolint:gochecknoinits
	decodeCmd.Flags().BoolVarP(&decodeDebug, "debug", "d", false, "Enable debug logging")
	decodeCmd.Flags().BoolVarP(&decodeSave, "save", "s", false, "Save the result to the database")
	decodeCmd.Flags().BoolVarP(&decodeItems, "items", "i", false, "Show per-player item timelines")
	decodeCmd.Flags().StringVar(&decodeTruth, "truth", "", "Ground-truth overlay directory")
}

func runDecode(cmd *cobra.Command, args []string) error {
	env, cleanup, errSetup := setup(decodeDebug)
	defer cleanup()
	if errSetup != nil {
		return errSetup
	}

	ctx := cmd.Context()

	decoded, errDecode := env.decoder.DecodePath(ctx, args[0])
	if errDecode != nil {
		return errDecode
	}

	truthDir := env.config.TruthDir
	if decodeTruth != "" {
		truthDir = decodeTruth
	}
	overlay, errTruth := truth.Load(truthDir, decoded.Match.MatchID.String())
	if errTruth != nil {
		slog.Warn("Truth overlay unreadable", slog.String("error", errTruth.Error()))
	}
	report := truth.Apply(decoded, overlay)

	fmt.Println(renderMatch(decoded)) //nolint:forbidigo
	if decodeItems {
		fmt.Println(renderItems(decoded)) //nolint:forbidigo
	}
	if overlay != nil {
		fmt.Println(renderTruth(report)) //nolint:forbidigo
	}

	if !decodeSave {
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

	if errSave := store.New(database).SaveMatch(ctx, decoded, env.tables.Version); errSave != nil {
		return errSave
	}
	slog.Info("Saved match", slog.String("match", decoded.Match.Name))

	return nil
}
