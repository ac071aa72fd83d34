package nativesearch

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Stage names the step of a bridge call that failed.
type Stage string

const (
	StageBuild      Stage = "build"
	StageInitialize Stage = "initialize"
	StageDataSource Stage = "datasource"
	StageSession    Stage = "session"
	StageCommand    Stage = "command"
	StageBind       Stage = "bind"
	StageExecute    Stage = "execute"
	StageExtract    Stage = "extract"
	StageRelease    Stage = "release"
)

var (
	// ErrQueryConstruction matches every build-stage error.
	ErrQueryConstruction = errors.New("query construction failed")
	// ErrQueryExecution matches errors from initialize through execute.
	ErrQueryExecution = errors.New("query execution failed")
	// ErrUnsupported is returned on platforms without a native index backend.
	ErrUnsupported = errors.New("native file index is not available on this platform")
	// ErrPreempted is returned by a query that a newer query displaced before it finished.
	ErrPreempted = errors.New("query preempted by a newer query")
)

// Error is a native failure tagged with the stage it happened in.
type Error struct {
	Stage Stage
	// Op is the native call, e.g. "IDBCreateSession::CreateSession".
	Op      string
	HResult uint32
	Msg     string
	Err     error
}

func newError(stage Stage, op string, msg string) *Error {
	return &Error{Stage: stage, Op: op, Msg: msg}
}

func hresultError(stage Stage, op string, hr uint32) *Error {
	return &Error{Stage: stage, Op: op, HResult: hr, Msg: fmt.Sprintf("HRESULT 0x%08X", hr)}
}

func wrapError(stage Stage, op string, err error) *Error {
	return &Error{Stage: stage, Op: op, Msg: err.Error(), Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("nativesearch %s: %s", e.Stage, e.Msg)
	}
	return fmt.Sprintf("nativesearch %s: %s: %s", e.Stage, e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrQueryConstruction:
		return e.Stage == StageBuild
	case ErrQueryExecution:
		switch e.Stage {
		case StageInitialize, StageDataSource, StageSession, StageCommand, StageBind, StageExecute:
			return true
		}
	}
	return false
}

// PartialError carries extract/release failures that happened while rows were
// being collected. It is returned together with the rows that did succeed.
type PartialError struct {
	err error
}

func (p *PartialError) add(err error) {
	p.err = multierr.Append(p.err, err)
}

// orNil keeps a typed nil *PartialError from leaking into an error interface.
func (p *PartialError) orNil() error {
	if p == nil || p.err == nil {
		return nil
	}
	return p
}

func (p *PartialError) Error() string {
	errs := multierr.Errors(p.err)
	if len(errs) == 1 {
		return "partial result: " + errs[0].Error()
	}
	return fmt.Sprintf("partial result: %d warnings: %v", len(errs), p.err)
}

// Warnings returns the individual failures.
func (p *PartialError) Warnings() []error { return multierr.Errors(p.err) }

func (p *PartialError) Unwrap() []error { return multierr.Errors(p.err) }

// IsPartial reports whether err only carries warnings, i.e. the accompanying
// records are usable.
func IsPartial(err error) bool {
	var p *PartialError
	return errors.As(err, &p)
}
