package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/leighmacdonald/vgr-decode/internal/config"
	"github.com/leighmacdonald/vgr-decode/internal/decoder"
	"github.com/leighmacdonald/vgr-decode/internal/gamedata"
)

var (
	BuildVersion   = "master"
	BuildCommit    = "00000000"
	BuildDate      = time.Now().Format("2006-01-02T15:04:05Z")
	BuildGoVersion = runtime.Version()
	cfgFile        string
	rootCmd        = &cobra.Command{
		Use:   "vgr-decode",
		Short: "Vainglory replay decoder",
		Long:  `vgr-decode - Decodes .vgr replay recordings into match results`,
	}

	versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Long:              "Print detailed version information about vgr-decode",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		Run:               version,
	}
)

var errApp = errors.New("application error")

func main() {
	configPath := config.Path(config.DefaultConfigName)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", configPath, "Config file path")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tablesCmd)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		slog.Error("Exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func version(_ *cobra.Command, _ []string) {
	fmt.Printf("vgr-decode - Vainglory replay decoder\n\n") //nolint:forbidigo
	fmt.Printf("  Version: %s\n", BuildVersion)             //nolint:forbidigo
	fmt.Printf("  Commit:  %s\n", BuildCommit)              //nolint:forbidigo
	fmt.Printf("  Built:   %s\n", BuildDate)                //nolint:forbidigo
	fmt.Printf("  Runtime: %s\n\n", BuildGoVersion)         //nolint:forbidigo
}

// appEnv is everything a subcommand needs to run the pipeline.
type appEnv struct {
	config  config.Config
	tables  *gamedata.Tables
	decoder *decoder.Decoder
}

// setup loads configuration, initializes logging and the static tables.
// If PROFILE is set, a CPU profile is written there; the returned
// cleanup stops it.
func setup(debugLog bool) (*appEnv, func(), error) {
	cleanup := func() {}

	if len(os.Getenv("PROFILE")) > 0 {
		profileFile, err := os.Create(os.Getenv("PROFILE"))
		if err != nil {
			return nil, cleanup, errors.Join(err, errApp)
		}

		if errStart := pprof.StartCPUProfile(profileFile); errStart != nil {
			return nil, cleanup, errors.Join(errStart, errApp)
		}
		cleanup = pprof.StopCPUProfile
	}

	// Make sure our config & data home exists.
	if err := os.MkdirAll(path.Join(xdg.ConfigHome, config.ConfigDirName), 0o750); err != nil {
		return nil, cleanup, errors.Join(err, errApp)
	}

	loader := config.NewLoader(nil)
	userConfig, errConfig := loader.Read()
	if errConfig != nil {
		return nil, cleanup, errors.Join(errConfig, errApp)
	}

	level := slog.LevelInfo
	if debugLog || userConfig.Debug {
		level = slog.LevelDebug
	}
	if _, errLogger := config.LoggerInit(config.DefaultLogName, level); errLogger != nil {
		return nil, cleanup, errors.Join(errLogger, errApp)
	}

	tables, errTables := gamedata.Load()
	if errTables != nil {
		return nil, cleanup, errors.Join(errTables, errApp)
	}

	slog.Debug("Loaded static tables",
		slog.String("version", tables.Version),
		slog.Int("heroes", len(tables.Heroes)),
		slog.Int("items", len(tables.Items)))

	return &appEnv{
		config:  userConfig,
		tables:  tables,
		decoder: decoder.New(tables, userConfig.Decoder()),
	}, cleanup, nil
}
