package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/gridlhq/versync/internal/output"
	fksync "github.com/gridlhq/versync/internal/sync"
	"github.com/spf13/cobra"
)

// displayedError wraps an error that has already been printed to the user.
// Execute() checks for this to avoid double-printing.
type displayedError struct {
	err error
}

func (e *displayedError) Error() string { return e.err.Error() }
func (e *displayedError) Unwrap() error { return e.err }

// displayed wraps an error to mark it as already shown to the user.
func displayed(err error) error {
	if err == nil {
		return nil
	}
	return &displayedError{err: err}
}

// flags holds per-invocation flag state (no package globals).
type flags struct {
	json    bool
	quiet   bool
	verbose bool

	manifest string
	target   string
	key      string
	noAtomic bool

	dryRun bool
	check  bool
}

func (f *flags) outputMode() output.Mode {
	if f.json {
		return output.ModeJSON
	}
	if f.quiet {
		return output.ModeQuiet
	}
	return output.ModeText
}

// Execute runs the CLI with the given version and args. Returns exit code.
func Execute(version string, args []string) int {
	root := newRootCmd(version)
	root.SetArgs(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		// If the error was already displayed inline, don't print again.
		var de *displayedError
		if !errors.As(err, &de) {
			// Safety net: always print something so users never see silent failures.
			w := output.New(output.ModeText)
			if ce := fksync.Classify(err); ce != nil {
				w.Error(ce.Message, ce.Fix)
			} else {
				w.Error(err.Error(), "")
			}
		}
		return 1
	}
	return 0
}

func newRootCmd(version string) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "versync",
		Short: "Copy the pubspec.yaml version into installer.iss",
		Long: `versync reads the version from pubspec.yaml and writes it into the three
places installer.iss carries it: AppVersion= in [Setup], ValueData: in
[Registry] and the MyAppVersion constant in [Code].

Run it from the project root with no arguments. Locations that are not
present in the installer script are left alone.`,
		Example: `  versync                 # sync pubspec.yaml into installer.iss
  versync --dry-run       # show the diff, write nothing
  versync --check         # fail if installer.iss is out of date (CI)
  versync watch           # re-sync on every pubspec.yaml save`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			output.SetupSlog(f.verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&f.json, "json", "j", false, "output in JSON format")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "suppress versync messages")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&f.manifest, "manifest", "", "manifest to read the version from (default pubspec.yaml)")
	pf.StringVar(&f.target, "target", "", "installer script to rewrite (default installer.iss)")
	pf.StringVar(&f.key, "key", "", "manifest key holding the version (default version)")
	pf.BoolVar(&f.noAtomic, "no-atomic", false, "rewrite the installer script in place instead of replacing it")

	root.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the diff without writing")
	root.Flags().BoolVar(&f.check, "check", false, "exit 1 if the installer script is out of sync")
	root.MarkFlagsMutuallyExclusive("dry-run", "check")

	root.AddCommand(
		newWatchCmd(f),
		newInitCmd(f),
	)

	return root
}
