package service

// FailureKind classifies the typed precondition failures the orchestrator
// returns. Every failure carries a short, user-presentable reason.
type FailureKind string

const (
	KindNotFound     FailureKind = "not_found"
	KindInvalidState FailureKind = "invalid_state"
	KindUnauthorized FailureKind = "unauthorized"
	KindConflict     FailureKind = "conflict"
	KindExpired      FailureKind = "expired"
)

// Error is a typed orchestrator failure. errors.Is matches on kind, so
// callers compare against the exported sentinels below.
type Error struct {
	Kind   FailureKind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &Error{Kind: KindNotFound, Reason: "session not found"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Reason: "invalid session state"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Reason: "not allowed"}
	ErrConflict     = &Error{Kind: KindConflict, Reason: "conflict"}
	ErrExpired      = &Error{Kind: KindExpired, Reason: "expired"}
)

func notFound(reason string) *Error { return &Error{Kind: KindNotFound, Reason: reason} }
func invalidState(reason string) *Error { return &Error{Kind: KindInvalidState, Reason: reason} }
func unauthorized(reason string) *Error { return &Error{Kind: KindUnauthorized, Reason: reason} }
func conflict(reason string) *Error { return &Error{Kind: KindConflict, Reason: reason} }
func expired(reason string) *Error { return &Error{Kind: KindExpired, Reason: reason} }
