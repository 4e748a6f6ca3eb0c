package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/daqd/internal/sqlite"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Addr       string        `yaml:"addr"`
	Listen     string        `yaml:"listen"`
	DataDir    string        `yaml:"data_dir,omitempty"`
	BufferSize int           `yaml:"buffer_size"`
	FreshDB    bool          `yaml:"fresh_db"`
	Reconnect  reconnectFile `yaml:"reconnect"`
}

type reconnectFile struct {
	InitialDelay string  `yaml:"initial_delay"`
	Multiplier   float64 `yaml:"multiplier"`
	MaxDelay     string  `yaml:"max_delay"`
	MaxAttempts  int     `yaml:"max_attempts"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml and create the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}
	configPath := filepath.Join(a.configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, a.flags.dataDir); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	// init never wipes an existing database.
	cfg := a.config
	cfg.FreshDB = false
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := backend.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "daqd initialized")
	fmt.Fprintln(out, "  config:", configPath)
	fmt.Fprintln(out, "  db:    ", cfg.DBPath)
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left untouched.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	backoff := types.DefaultBackoff()
	cfg := configFile{
		Addr:       types.DefaultAddr,
		Listen:     types.DefaultListen,
		DataDir:    dataDir,
		BufferSize: types.DefaultBufferSize,
		FreshDB:    true,
		Reconnect: reconnectFile{
			InitialDelay: backoff.InitialDelay.String(),
			Multiplier:   backoff.Multiplier,
			MaxDelay:     backoff.MaxDelay.String(),
			MaxAttempts:  backoff.MaxAttempts,
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
