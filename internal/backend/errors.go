package backend

import (
	"errors"
	"fmt"
)

// Kind separates failures for logging. Callers showing errors to users
// collapse every kind into one message.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindStatus
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("backend %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of a backend error anywhere in err's chain, or 0.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by a KindStatus error, or 0.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) && be.Kind == KindStatus {
		return be.Status
	}
	return 0
}
