package apperr

import "errors"

// Error kinds. Domain errors wrap exactly one of these with %w.
var (
	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violation")
	ErrRemoteCall   = errors.New("remote call failure")
)

type Kind string

const (
	KindNone         Kind = ""
	KindNotFound     Kind = "not_found"
	KindBusinessRule Kind = "business_rule"
	KindRemoteCall   Kind = "remote_call"
	KindInternal     Kind = "internal"
)

// KindOf classifies err. Remote failures win over the other kinds because a
// timed-out lookup is also reported as "not found" by the order flow.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRemoteCall):
		return KindRemoteCall
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBusinessRule):
		return KindBusinessRule
	default:
		return KindInternal
	}
}
