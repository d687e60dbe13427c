package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by backends when the named service does not exist.
	ErrNotFound = errors.New("service does not exist")
	// ErrAccessDenied is wrapped by backends when the caller may not control the service.
	ErrAccessDenied = errors.New("access denied")
)

// Op is a service operation.
type Op string

const (
	OpStart  Op = "start"
	OpStop   Op = "stop"
	OpStatus Op = "status"
)

// Kind classifies the outcome of an operation.
type Kind string

const (
	KindOK           Kind = "ok"
	KindNotSet       Kind = "not-set"
	KindNotFound     Kind = "not-found"
	KindAccessDenied Kind = "access-denied"
	KindTimeout      Kind = "timeout"
	KindFailed       Kind = "failed"
)

// Result is the outcome of one service operation.
type Result struct {
	Op     Op
	Name   string
	Kind   Kind
	Status Status // last observed status; Unknown if never observed
	Err    error  // nil for KindOK and KindNotSet
	Detail string // backend diagnostics collected on timeout
}

// OK reports whether the operation reached its target state.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// String renders the result in the fixed format callers display and
// match on.
func (r Result) String() string {
	switch r.Kind {
	case KindNotSet:
		if r.Op == OpStatus {
			return "N/A"
		}
		return "Service not set"
	case KindOK, KindTimeout:
		if r.Op == OpStatus {
			return r.Status.String()
		}
		return "Service status = " + r.Status.String()
	}
	if r.Op == OpStatus {
		return "Service Failed"
	}
	return fmt.Sprintf("%v Exception caught.", r.Err)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	default:
		return KindFailed
	}
}
