package errcode

// Envelope codes carried in the "code" field of every JSON error.
const (
	ErrUnknown = 20000000 + iota
	ErrInvalid
	ErrInvalidVector
	ErrNotFound
	ErrInternal
	ErrDatabaseUnavailable
)
