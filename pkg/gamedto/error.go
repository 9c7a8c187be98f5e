package gamedto

// ErrorKind is the machine-checkable error class carried on every
// structured error response and mapped to an HTTP status class by the
// gateway.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindValidation      ErrorKind = "validation_error"
	KindNotFound        ErrorKind = "not_found"
	KindNotAPlayer      ErrorKind = "not_a_player"
	KindNotYourTurn     ErrorKind = "not_your_turn"
	KindIllegalMove     ErrorKind = "illegal_move"
	KindGameNotActive   ErrorKind = "game_not_active"
	KindGameFinished    ErrorKind = "game_already_finished"
	KindSessionFull     ErrorKind = "session_full"
	KindConflict        ErrorKind = "conflict"
	KindUnexpected      ErrorKind = "unexpected"
)

// DomainError is the wire shape of a recoverable command failure.
// Message is safe to display; Retryable marks kinds (conflict) where
// the documented client behavior is to retry the same command.
type DomainError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != "" {
		return string(e.Kind)
	}
	return "game service error"
}
