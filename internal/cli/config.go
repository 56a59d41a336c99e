package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/drone/envsubst"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the workspace file looked up in the working directory.
const DefaultConfigFile = "modelsync.yaml"

// Config is the workspace configuration file. Values may reference
// environment variables as ${VAR} or ${VAR:-default}.
//
//	db: ${HOME}/diagrams/modelsync.db
//	session: ${USER}-draft
//	notation: notations/uml.cue
type Config struct {
	DB       string `yaml:"db"`
	Session  string `yaml:"session"`
	Notation string `yaml:"notation"`
	Format   string `yaml:"format"`
}

// LoadConfig reads a workspace file. Relative db and notation paths are
// resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.DB = resolvePath(dir, cfg.DB)
	cfg.Notation = resolvePath(dir, cfg.Notation)
	return &cfg, nil
}

func resolvePath(dir, p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// applyConfig fills options the user did not set on the command line from
// the workspace file. A missing default workspace file is not an error.
func applyConfig(cmd *cobra.Command, opts *RootOptions) error {
	explicit := cmd.Flags().Changed("config")
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return WrapExitError(ExitCommandError, "failed to load workspace configuration", err)
	}

	set := func(flag string, dst *string, v string) {
		if v != "" && !cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("db", &opts.DB, cfg.DB)
	set("session", &opts.Session, cfg.Session)
	set("notation", &opts.Notation, cfg.Notation)
	set("format", &opts.Format, cfg.Format)
	return nil
}
