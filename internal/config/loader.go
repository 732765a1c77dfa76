package config

import (
	"errors"
	"log/slog"
	"runtime"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader handles setting up viper, loading configuration from files, and broadcasting configuration changes.
type Loader struct {
	*viper.Viper
	changes chan<- Config
}

func NewLoader(changes chan<- Config) *Loader {
	loader := Loader{changes: changes, Viper: viper.New()}
	loader.SetDefault("replay_dir", defaultReplayDir())
	loader.SetDefault("db_path", PathData(DefaultDBName))
	loader.SetDefault("truth_dir", "")
	loader.SetDefault("parallelism", max(2, runtime.GOMAXPROCS(0)))
	loader.SetDefault("death_buffer_secs", 10.0)
	loader.SetDefault("cluster_window_secs", 2.0)
	loader.SetDefault("cluster_size", 6)
	loader.SetDefault("debug", false)
	loader.SetConfigName(DefaultConfigName)
	loader.SetConfigType("yaml")
	loader.SetEnvPrefix(EnvPrefix)
	loader.AddConfigPath(Path(""))
	loader.AddConfigPath(".")
	loader.AutomaticEnv()
	loader.WatchConfig()
	loader.OnConfigChange(loader.onConfigChange)

	return &loader
}

func (cl *Loader) Path() string {
	return cl.ConfigFileUsed()
}

func (cl *Loader) onConfigChange(in fsnotify.Event) {
	if in.Op != fsnotify.Write && in.Op != fsnotify.Rename {
		return
	}

	slog.Debug("External config reload triggered")
	config, err := cl.Read()
	if err != nil {
		slog.Error("Error reading config", slog.String("error", err.Error()))

		return
	}

	if cl.changes != nil {
		cl.changes <- config
	}
}

func (cl *Loader) Write(config Config) error {
	cl.Set("replay_dir", config.ReplayDir)
	cl.Set("db_path", config.DBPath)
	cl.Set("truth_dir", config.TruthDir)
	cl.Set("parallelism", config.Parallelism)
	cl.Set("death_buffer_secs", config.DeathBufferSecs)
	cl.Set("cluster_window_secs", config.ClusterWindowSecs)
	cl.Set("cluster_size", config.ClusterSize)
	cl.Set("debug", config.Debug)

	if err := cl.WriteConfig(); err != nil {
		return errors.Join(err, errConfigWrite)
	}

	return nil
}

func (cl *Loader) Read() (Config, error) {
	if err := cl.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return Config{}, errors.Join(err, errConfigRead)
		}
	}

	var config Config
	if err := cl.Unmarshal(&config); err != nil {
		return Config{}, errors.Join(err, errConfigRead)
	}

	return config, nil
}
