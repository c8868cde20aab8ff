package cli

import (
	"fmt"

	"github.com/gridlhq/versync/internal/output"
	fksync "github.com/gridlhq/versync/internal/sync"
	"github.com/spf13/cobra"
)

// runSync handles bare `versync`: sync, dry run or check.
func runSync(cmd *cobra.Command, f *flags) error {
	cc, err := resolveCmdContext(cmd, f)
	if err != nil {
		return err
	}
	w := cc.Output
	ctx := cmd.Context()

	switch {
	case f.check:
		report, err := fksync.Check(ctx, cc.Options)
		if report != nil {
			w.Result("check", report)
			w.Diff(report.Diff)
		}
		if err != nil {
			return printError(w, err)
		}
		w.Success(fmt.Sprintf("%s is in sync with %s (%s)", report.TargetPath, report.ManifestPath, report.Version))
		return nil

	case f.dryRun:
		opts := cc.Options
		opts.DryRun = true
		report, err := fksync.Run(ctx, opts)
		if err != nil {
			return printError(w, err)
		}
		w.Result("sync", report)
		w.Diff(report.Diff)
		warnUnmatched(w, report)
		if !report.Changed {
			w.Success(fmt.Sprintf("%s is already at version %s", report.TargetPath, report.Version))
			return nil
		}
		w.Info("dry run: no files written")
		return nil

	default:
		// Success is silent in text mode.
		report, err := fksync.Run(ctx, cc.Options)
		if err != nil {
			return printError(w, err)
		}
		w.Result("sync", report)
		return nil
	}
}

// printSummary reports a completed run: a warning per unmatched rule, then
// one status line.
func printSummary(w *output.Writer, report *fksync.Report) {
	w.Result("sync", report)
	warnUnmatched(w, report)
	if report.Written {
		w.Success(fmt.Sprintf("synced version %s into %s", report.Version, report.TargetPath))
		return
	}
	w.Info(fmt.Sprintf("%s is already at version %s", report.TargetPath, report.Version))
}

func warnUnmatched(w *output.Writer, report *fksync.Report) {
	for _, res := range report.Unmatched() {
		w.Warn(fmt.Sprintf("rule %s %s matched nothing in %s", res.Rule, res.Section, report.TargetPath))
	}
}

// printError shows err with a fix hint when one is known and marks it displayed.
func printError(w *output.Writer, err error) error {
	if ce := fksync.Classify(err); ce != nil {
		w.Error(ce.Message, ce.Fix)
	} else {
		w.Error(err.Error(), "")
	}
	return displayed(err)
}
