package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/leighmacdonald/vgr-decode/internal/decoder"
	"github.com/leighmacdonald/vgr-decode/internal/kda"
)

var (
	errConfigWrite = errors.New("failed to write config file")
	errConfigRead  = errors.New("failed to read config file")
	errLoggerInit  = errors.New("failed to initialize logger")
)

const (
	ConfigDirName     = "vgr-decode"
	DefaultConfigName = "vgr-decode"
	DefaultDBName     = "vgr-decode.db"
	DefaultLogName    = "vgr-decode.log"
	EnvPrefix         = "vgrdecode"
)

type Config struct {
	// ReplayDir is scanned recursively for frame files.
	ReplayDir string `mapstructure:"replay_dir"`
	DBPath    string `mapstructure:"db_path"`
	// TruthDir holds optional ground-truth overlay files, one per match.
	TruthDir    string `mapstructure:"truth_dir"`
	Parallelism int    `mapstructure:"parallelism"`
	// DeathBufferSecs extends the accepted death window past the coarse
	// match duration.
	DeathBufferSecs   float64 `mapstructure:"death_buffer_secs"`
	ClusterWindowSecs float64 `mapstructure:"cluster_window_secs"`
	ClusterSize       int     `mapstructure:"cluster_size"`
	Debug             bool    `mapstructure:"debug"`
}

// Decoder translates the file-level tunables into pipeline config,
// falling back to defaults for unset values.
func (c Config) Decoder() decoder.Config {
	cfg := decoder.DefaultConfig()
	if c.DeathBufferSecs > 0 {
		cfg.KDA = kda.Config{DeathBuffer: c.DeathBufferSecs}
	}
	if c.ClusterWindowSecs > 0 {
		cfg.Outcome.ClusterWindow = c.ClusterWindowSecs
	}
	if c.ClusterSize > 0 {
		cfg.Outcome.ClusterSize = c.ClusterSize
	}

	return cfg
}

// Path generates a path pointing to the filename under this apps defined $XDG_CONFIG_HOME.
func Path(name string) string {
	fullPath, errFullPath := xdg.ConfigFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		panic(errFullPath)
	}

	return fullPath
}

// PathData places mutable state, the sqlite database mostly, under
// $XDG_DATA_HOME.
func PathData(name string) string {
	dataDir, found := os.LookupEnv("DATA_DIR")
	if found && dataDir != "" {
		return path.Join(dataDir, name)
	}

	return path.Join(xdg.DataHome, ConfigDirName, name)
}

func defaultReplayDir() string {
	switch runtime.GOOS {
	case "darwin":
		homedir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}

		return path.Join(homedir, "Library/Application Support/Vainglory/Replays")
	case "linux":
		homedir, err := os.UserHomeDir()
		if err != nil {
			homedir = "/"
		}

		return path.Join(homedir, ".local/share/Vainglory/Replays")
	case "windows":
		// Untested
		return "C:\\Users\\Public\\Documents\\Vainglory\\Replays"
	default:
		return ""
	}
}

// LoggerInit sets up the slog global handler. An empty logPath logs to
// stderr; otherwise output goes to the named file under the config dir.
func LoggerInit(logPath string, level slog.Level) (io.Closer, error) {
	var (
		sink   io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)

	if logPath != "" {
		logFile, errLogFile := os.Create(path.Join(xdg.ConfigHome, ConfigDirName, logPath))
		if errLogFile != nil {
			return nil, errors.Join(errLogFile, errLoggerInit)
		}
		sink = logFile
		closer = logFile
	}

	logger := slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}))

	slog.SetDefault(logger)

	return closer, nil
}
