package export

import "fmt"

// Kind is the closed set of export failure classes.
// Callers can switch exhaustively over these; nothing unclassified
// ever escapes the export service boundary.
type Kind string

const (
	KindData       Kind = "DATA_ERROR"
	KindGeneration Kind = "GENERATION_ERROR"
	KindDownload   Kind = "DOWNLOAD_ERROR"
	KindPermission Kind = "PERMISSION_ERROR"
)

// Error is a classified export failure. Message is user-facing (Spanish);
// Cause carries the underlying error for diagnostics only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError returns err as a classified *Error when it is one.
func AsError(err error) (*Error, bool) {
	xerr, ok := err.(*Error)
	return xerr, ok
}

// classify wraps any unclassified error into a GENERATION_ERROR,
// leaving already-classified errors untouched.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	if xerr, ok := AsError(err); ok {
		return xerr
	}
	return WrapError(KindGeneration, "error al generar la exportación", err)
}
