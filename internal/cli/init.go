package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridlhq/versync/internal/config"
	"github.com/gridlhq/versync/internal/output"
	"github.com/spf13/cobra"
)

func newInitCmd(f *flags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .versync.toml with the default settings",
		Long: `Creates a .versync.toml in the current directory holding the default
manifest and installer paths. Edit it when your files live elsewhere.

Running versync without init works fine. This is only needed if your
project does not use pubspec.yaml and installer.iss at its root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			w := output.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.outputMode())
			return RunInit(cwd, force, w)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing .versync.toml")

	return cmd
}

// RunInit creates a .versync.toml in the given directory.
func RunInit(dir string, force bool, w *output.Writer) error {
	target := filepath.Join(dir, config.FileName)

	if !force {
		if _, err := os.Stat(target); err == nil {
			w.Error(
				fmt.Sprintf("%s already exists", config.FileName),
				"use --force to overwrite",
			)
			return displayed(fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName))
		}
	}

	tmpl, err := config.Template()
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(tmpl), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", config.FileName, err)
	}

	w.Infof("created %s", config.FileName)
	return nil
}
