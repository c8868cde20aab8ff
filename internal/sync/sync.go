package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aymanbagabas/go-udiff"
	"github.com/hashicorp/go-multierror"

	"github.com/gridlhq/versync/internal/installer"
	"github.com/gridlhq/versync/internal/manifest"
)

// Options configures a synchronization. Zero values fall back to the
// defaults: pubspec.yaml, installer.iss, key "version", the Inno Setup
// rules, atomic writes.
type Options struct {
	ManifestPath string
	TargetPath   string
	Key          string
	Rules        []installer.Rule

	// DryRun computes the result and diff without writing.
	DryRun bool

	// InPlace truncates and rewrites the target instead of replacing it
	// atomically.
	InPlace bool
}

func (o Options) withDefaults() Options {
	if o.ManifestPath == "" {
		o.ManifestPath = manifest.DefaultPath
	}
	if o.TargetPath == "" {
		o.TargetPath = installer.DefaultPath
	}
	if o.Key == "" {
		o.Key = manifest.DefaultKey
	}
	if len(o.Rules) == 0 {
		o.Rules = installer.DefaultRules()
	}
	return o
}

// Report describes the outcome of a synchronization.
type Report struct {
	Version      string             `json:"version"`
	ManifestPath string             `json:"manifest"`
	TargetPath   string             `json:"target"`
	Results      []installer.Result `json:"results"`

	// Changed is true when the rules produced different text.
	Changed bool `json:"changed"`

	// Written is true when the target file was rewritten.
	Written bool `json:"written"`

	// Diff is the unified diff of the change. Only set for dry runs and checks.
	Diff string `json:"diff,omitempty"`
}

// Unmatched returns the results of rules that matched nothing.
func (r *Report) Unmatched() []installer.Result {
	var out []installer.Result
	for _, res := range r.Results {
		if res.Matches == 0 {
			out = append(out, res)
		}
	}
	return out
}

// Run copies the manifest version into every rule location of the target
// and writes the target back. The target is left untouched when the rules
// change nothing, when DryRun is set, or when any step fails.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	version, err := readVersion(opts.ManifestPath, opts.Key)
	if err != nil {
		return nil, err
	}
	slog.Debug("read manifest version", "manifest", opts.ManifestPath, "key", opts.Key, "version", version)

	before, err := installer.Read(opts.TargetPath)
	if err != nil {
		return nil, newError(ErrTargetRead, opts.TargetPath, err)
	}

	after, results := installer.Apply(before, version, opts.Rules)
	report := &Report{
		Version:      version,
		ManifestPath: opts.ManifestPath,
		TargetPath:   opts.TargetPath,
		Results:      results,
		Changed:      after != before,
	}
	for _, res := range results {
		slog.Debug("applied rule", "rule", res.Rule, "section", res.Section, "matches", res.Matches, "changed", res.Changed)
	}

	if opts.DryRun {
		report.Diff = unifiedDiff(opts.TargetPath, before, after)
		return report, nil
	}
	if !report.Changed {
		slog.Debug("target already up to date", "target", opts.TargetPath)
		return report, nil
	}

	if err := installer.Write(opts.TargetPath, []byte(after), !opts.InPlace); err != nil {
		return nil, newError(ErrTargetWrite, opts.TargetPath, err)
	}
	report.Written = true
	slog.Debug("wrote target", "target", opts.TargetPath, "atomic", !opts.InPlace)

	return report, nil
}

// Check reports, without writing, whether the target already holds the
// manifest version at every rule location. It returns a *DriftError naming
// each rule that is out of date or has no match.
func Check(ctx context.Context, opts Options) (*Report, error) {
	opts.DryRun = true
	report, err := Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	for _, res := range report.Results {
		switch {
		case res.Matches == 0:
			errs = multierror.Append(errs, fmt.Errorf("rule %s %s: no match", res.Rule, res.Section))
		case res.Changed:
			errs = multierror.Append(errs, fmt.Errorf("rule %s %s: out of date", res.Rule, res.Section))
		}
	}
	if errs.ErrorOrNil() != nil {
		return report, newDriftError(report.TargetPath, report.Version, errs)
	}
	return report, nil
}

func readVersion(path, key string) (string, error) {
	data, err := manifest.Read(path)
	if err != nil {
		return "", newError(ErrManifestRead, path, err)
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return "", newError(ErrManifestParse, path, err)
	}

	version, err := m.Scalar(key)
	switch {
	case errors.Is(err, manifest.ErrMissingKey):
		slog.Debug("manifest keys", "keys", m.Keys())
		return "", newError(ErrMissingVersionKey, path, err)
	case err != nil:
		return "", newError(ErrManifestParse, path, err)
	}
	return version, nil
}

func unifiedDiff(path, before, after string) string {
	if before == after {
		return ""
	}
	return udiff.Unified(path, path, before, after)
}
