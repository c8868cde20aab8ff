package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Error kinds. Every error returned by Run carries exactly one of them.
var (
	ErrManifestRead      = errors.New("cannot read manifest")
	ErrManifestParse     = errors.New("cannot parse manifest")
	ErrMissingVersionKey = errors.New("manifest has no version")
	ErrTargetRead        = errors.New("cannot read target")
	ErrTargetWrite       = errors.New("cannot write target")

	// ErrDrift is matched by *DriftError.
	ErrDrift = errors.New("target is out of sync with manifest")
)

// Error ties a failure to the step and file it happened on.
// errors.Is matches both Kind and the underlying cause.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// DriftError lists every rule whose target location does not hold the
// manifest version.
type DriftError struct {
	Target  string
	Version string
	errs    *multierror.Error
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%s is out of sync with version %s: %s", e.Target, e.Version, e.errs.Error())
}

func (e *DriftError) Is(target error) bool { return target == ErrDrift }

func (e *DriftError) Unwrap() error { return e.errs }

// Problems returns one error per drifted rule.
func (e *DriftError) Problems() []error {
	return e.errs.WrappedErrors()
}

func newDriftError(target, version string, errs *multierror.Error) *DriftError {
	errs.ErrorFormat = func(es []error) string {
		parts := make([]string, len(es))
		for i, err := range es {
			parts[i] = err.Error()
		}
		return strings.Join(parts, "; ")
	}
	return &DriftError{Target: target, Version: version, errs: errs}
}

// ClassifiedError wraps a sync error with user-facing context.
type ClassifiedError struct {
	Message string // user-facing description
	Fix     string // actionable fix instruction
	Cause   error  // original error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// Classify returns a ClassifiedError with a fix hint for errors produced by
// Run, Check and Watch, or nil if the error is not recognized.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return &ClassifiedError{
			Message: se.Error(),
			Fix:     fixFor(se),
			Cause:   err,
		}
	}

	var de *DriftError
	if errors.As(err, &de) {
		return &ClassifiedError{
			Message: de.Error(),
			Fix:     "run: versync",
			Cause:   err,
		}
	}
	return nil
}

func fixFor(e *Error) string {
	switch {
	case errors.Is(e.Kind, ErrManifestRead) && errors.Is(e.Err, fs.ErrNotExist):
		return "run versync from the project root, or pass --manifest"
	case errors.Is(e.Kind, ErrManifestRead):
		return "check that the manifest is readable"
	case errors.Is(e.Kind, ErrManifestParse):
		return "fix the YAML syntax; the manifest must be a key-value mapping"
	case errors.Is(e.Kind, ErrMissingVersionKey):
		return "add a top-level version key, e.g. version: 1.0.0"
	case errors.Is(e.Kind, ErrTargetRead) && errors.Is(e.Err, fs.ErrNotExist):
		return "run versync from the project root, or pass --target"
	case errors.Is(e.Kind, ErrTargetRead):
		return "check that the installer script is readable"
	case errors.Is(e.Kind, ErrTargetWrite):
		return "check permissions on the installer script and its directory"
	default:
		return ""
	}
}
