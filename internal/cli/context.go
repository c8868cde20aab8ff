package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gridlhq/versync/internal/config"
	"github.com/gridlhq/versync/internal/output"
	fksync "github.com/gridlhq/versync/internal/sync"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cmdContext holds the resolved context for a CLI command.
// Created once per command invocation, not shared between commands.
type cmdContext struct {
	Config     config.Config
	ConfigPath string
	Options    fksync.Options
	Output     *output.Writer
}

// resolveCmdContext loads configuration, applies flag overrides and builds
// the sync options.
func resolveCmdContext(cmd *cobra.Command, f *flags) (*cmdContext, error) {
	w := output.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.outputMode())

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, configPath, err := config.Load(cwd)
	if err != nil {
		w.Error(err.Error(), "check .versync.toml syntax, or delete it and run: versync init")
		return nil, displayed(err)
	}
	if configPath != "" {
		slog.Debug("loaded config", "path", configPath)
	}

	applyFlagOverrides(cmd.Flags(), f, &cfg)
	if err := cfg.Validate(); err != nil {
		w.Error(err.Error(), "")
		return nil, displayed(err)
	}

	return &cmdContext{
		Config:     cfg,
		ConfigPath: configPath,
		Output:     w,
		Options: fksync.Options{
			ManifestPath: cfg.Manifest.Path,
			TargetPath:   cfg.Target.Path,
			Key:          cfg.Manifest.Key,
			InPlace:      !cfg.Target.Atomic,
		},
	}, nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
// Flag paths are relative to the working directory, not the config file.
func applyFlagOverrides(fs *pflag.FlagSet, f *flags, cfg *config.Config) {
	if fs.Changed("manifest") {
		cfg.Manifest.Path = f.manifest
	}
	if fs.Changed("target") {
		cfg.Target.Path = f.target
	}
	if fs.Changed("key") {
		cfg.Manifest.Key = f.key
	}
	if fs.Changed("no-atomic") {
		cfg.Target.Atomic = !f.noAtomic
	}
}
