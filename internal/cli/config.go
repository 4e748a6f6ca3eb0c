// Config loading for the daqd CLI.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/daqd/internal/paths"
	"github.com/mesh-intelligence/daqd/internal/wire"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyAddr         = "addr"
	cfgKeyListen       = "listen"
	cfgKeyDataDir      = "data_dir"
	cfgKeyDBPath       = "db_path"
	cfgKeyBufferSize   = "buffer_size"
	cfgKeyFreshDB      = "fresh_db"
	cfgKeyMetricsAddr  = "metrics_addr"
	cfgKeyLogLevel     = "log_level"
	cfgKeyInitialDelay = "reconnect.initial_delay"
	cfgKeyMultiplier   = "reconnect.multiplier"
	cfgKeyMaxDelay     = "reconnect.max_delay"
	cfgKeyMaxAttempts  = "reconnect.max_attempts"
)

// flagKeys maps command-line flags onto config keys. A flag only overrides
// config.yaml when it was set explicitly.
var flagKeys = map[string]string{
	"addr":         cfgKeyAddr,
	"listen":       cfgKeyListen,
	"db":           cfgKeyDBPath,
	"fresh-db":     cfgKeyFreshDB,
	"buffer-size":  cfgKeyBufferSize,
	"metrics-addr": cfgKeyMetricsAddr,
	"log-level":    cfgKeyLogLevel,
	"max-attempts": cfgKeyMaxAttempts,
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	backoff := types.DefaultBackoff()
	v.SetDefault(cfgKeyAddr, types.DefaultAddr)
	v.SetDefault(cfgKeyListen, types.DefaultListen)
	v.SetDefault(cfgKeyBufferSize, types.DefaultBufferSize)
	v.SetDefault(cfgKeyFreshDB, true)
	v.SetDefault(cfgKeyInitialDelay, backoff.InitialDelay)
	v.SetDefault(cfgKeyMultiplier, backoff.Multiplier)
	v.SetDefault(cfgKeyMaxDelay, backoff.MaxDelay)
	v.SetDefault(cfgKeyMaxAttempts, backoff.MaxAttempts)
}

// bindFlags binds every flag the running command defines.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// buildConfig resolves the data directory and database path and returns
// a validated Config.
func buildConfig(v *viper.Viper, dataDirFlag string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, err
	}
	dbPath := v.GetString(cfgKeyDBPath)
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, types.DefaultDBName)
	}

	cfg := types.Config{
		Addr:        v.GetString(cfgKeyAddr),
		Listen:      v.GetString(cfgKeyListen),
		DataDir:     dataDir,
		DBPath:      dbPath,
		FreshDB:     v.GetBool(cfgKeyFreshDB),
		BufferSize:  v.GetInt(cfgKeyBufferSize),
		MetricsAddr: v.GetString(cfgKeyMetricsAddr),
		LogLevel:    v.GetString(cfgKeyLogLevel),
		Reconnect: types.BackoffConfig{
			InitialDelay: v.GetDuration(cfgKeyInitialDelay),
			Multiplier:   v.GetFloat64(cfgKeyMultiplier),
			MaxDelay:     v.GetDuration(cfgKeyMaxDelay),
			MaxAttempts:  v.GetInt(cfgKeyMaxAttempts),
		},
	}
	if err := cfg.Validate(wire.MaxFrameSize); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
