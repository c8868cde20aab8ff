package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	t.Parallel()

	cause := &fs.PathError{Op: "open", Path: "pubspec.yaml", Err: fs.ErrNotExist}
	err := fmt.Errorf("syncing: %w", newError(ErrManifestRead, "pubspec.yaml", cause))

	assert.ErrorIs(t, err, ErrManifestRead)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrTargetRead)
	assert.Equal(t, "syncing: cannot read manifest pubspec.yaml: open pubspec.yaml: file does not exist", err.Error())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	notExist := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}
	denied := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}

	tests := []struct {
		name    string
		err     error
		wantFix string
	}{
		{
			name:    "manifest missing",
			err:     newError(ErrManifestRead, "pubspec.yaml", notExist),
			wantFix: "run versync from the project root, or pass --manifest",
		},
		{
			name:    "manifest unreadable",
			err:     newError(ErrManifestRead, "pubspec.yaml", denied),
			wantFix: "check that the manifest is readable",
		},
		{
			name:    "manifest parse",
			err:     newError(ErrManifestParse, "pubspec.yaml", errors.New("bad yaml")),
			wantFix: "fix the YAML syntax; the manifest must be a key-value mapping",
		},
		{
			name:    "missing key",
			err:     newError(ErrMissingVersionKey, "pubspec.yaml", errors.New("key not found")),
			wantFix: "add a top-level version key, e.g. version: 1.0.0",
		},
		{
			name:    "target missing",
			err:     newError(ErrTargetRead, "installer.iss", notExist),
			wantFix: "run versync from the project root, or pass --target",
		},
		{
			name:    "target write",
			err:     newError(ErrTargetWrite, "installer.iss", denied),
			wantFix: "check permissions on the installer script and its directory",
		},
		{
			name:    "drift",
			err:     newDriftError("installer.iss", "2.0.0", multierror.Append(nil, errors.New("rule A [Setup]: out of date"))),
			wantFix: "run: versync",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ce := Classify(fmt.Errorf("wrapped: %w", tt.err))
			require.NotNil(t, ce)
			assert.Equal(t, tt.wantFix, ce.Fix)
			assert.Equal(t, tt.err.Error(), ce.Message)
			assert.ErrorIs(t, ce, tt.err)
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Classify(nil))
	assert.Nil(t, Classify(errors.New("something else")))
}

func TestDriftErrorMessage(t *testing.T) {
	t.Parallel()

	var errs *multierror.Error
	errs = multierror.Append(errs, errors.New("rule A [Setup]: out of date"))
	errs = multierror.Append(errs, errors.New("rule C [Code]: no match"))
	err := newDriftError("installer.iss", "2.0.0", errs)

	assert.Equal(t, "installer.iss is out of sync with version 2.0.0: rule A [Setup]: out of date; rule C [Code]: no match", err.Error())
	assert.ErrorIs(t, err, ErrDrift)
	assert.Len(t, err.Problems(), 2)
}
