package cli

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/gridlhq/versync/internal/output"
	fksync "github.com/gridlhq/versync/internal/sync"
	"github.com/spf13/cobra"
)

func newWatchCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-sync the installer script every time the manifest changes",
		Long: `Syncs once, then keeps watching the manifest and syncs again after every
save. Errors are reported and the watch keeps going. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, f)
		},
	}
}

func runWatch(cmd *cobra.Command, f *flags) error {
	cc, err := resolveCmdContext(cmd, f)
	if err != nil {
		return err
	}
	w := cc.Output

	// The spinner only makes sense on an interactive terminal.
	var spin *spinner.Spinner
	if w.Mode() == output.ModeText && output.IsTerminal(w.Out()) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w.Out()))
		spin.Suffix = " watching " + cc.Options.ManifestPath
	}

	err = fksync.Watch(cmd.Context(), cc.Options, func(report *fksync.Report, err error) {
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			printError(w, err) //nolint:errcheck // watch keeps going
		} else {
			printSummary(w, report)
		}
		if spin != nil {
			spin.Start()
		}
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return printError(w, err)
	}
	return nil
}
