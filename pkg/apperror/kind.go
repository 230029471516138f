package apperror

// Kind classifies an error for HTTP mapping and retry decisions.
type Kind string

const (
	InvalidInput   Kind = "invalid_input"
	AlreadyExists  Kind = "already_exists"
	NotFound       Kind = "not_found"
	RequestTimeout Kind = "request_timeout"
	DatabaseErr    Kind = "database_error"
	Internal       Kind = "internal"

	// Conflict marks referential races, the one class of persistence
	// error the prober retries.
	Conflict Kind = "conflict"
)
