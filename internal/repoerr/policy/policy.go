// Package policy classifies store failures for front ends. It is kept apart
// from the taxonomy so several front ends can share the kinds without
// sharing presentation rules.
package policy

import "github.com/jask/jaskledger/internal/repoerr"

type Severity int

const (
	// Info failures are expected outcomes the user can correct in place.
	Info Severity = iota
	// Warning failures interrupt the current action but leave data intact.
	Warning
	// Critical failures mean the store itself is unusable.
	Critical
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	}
	return "unknown"
}

// Classification is the caller-facing view of a failure.
type Classification struct {
	Kind      repoerr.Kind
	Typed     bool // false when err carried no *repoerr.Error
	Severity  Severity
	Retryable bool
}

// Classify maps err onto a severity and a retry hint. Untyped errors are
// reported as critical and not retryable with Typed=false so callers can
// tell them apart from every declared kind.
func Classify(err error) Classification {
	kind, ok := repoerr.KindOf(err)
	if !ok {
		return Classification{Severity: Critical}
	}
	c := Classification{Kind: kind, Typed: true}
	switch kind {
	case repoerr.ContextUnavailable:
		c.Severity, c.Retryable = Critical, true
	case repoerr.EntityNotFound:
		c.Severity, c.Retryable = Warning, false
	case repoerr.InvalidData:
		c.Severity, c.Retryable = Info, false
	case repoerr.ConflictDetected:
		c.Severity, c.Retryable = Info, false
	case repoerr.SaveFailed:
		c.Severity, c.Retryable = Warning, true
	case repoerr.FetchFailed:
		c.Severity, c.Retryable = Warning, true
	case repoerr.MigrationRequired:
		c.Severity, c.Retryable = Critical, false
	default:
		c.Typed = false
		c.Severity = Critical
	}
	return c
}
