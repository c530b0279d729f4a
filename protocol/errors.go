package protocol

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes a fatal reframing error
type ErrorKind int

const (
	ErrIO                 ErrorKind = iota + 1 // Read or write reported an error
	ErrUnknownCommand                          // Opcode has no table entry
	ErrTruncated                               // Input ended inside a command
	ErrTableInconsistency                      // Length outside 0..MaxPayload
	ErrShortWrite                              // Output accepted part of a packet
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIO:
		return "io"
	case ErrUnknownCommand:
		return "unknown command"
	case ErrTruncated:
		return "truncated input"
	case ErrTableInconsistency:
		return "table inconsistency"
	case ErrShortWrite:
		return "short write"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error implements error so a kind can be matched with errors.Is
func (k ErrorKind) Error() string {
	return "protocol: " + k.String()
}

// Error is a fatal reframing error together with the state of the command
// being processed when it was raised.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // Underlying I/O error, if any

	BytesRead int64 // Input bytes consumed before the failure
	Command   byte  // Opcode being processed
	Length    int   // Length computed for the command so far, 0 if undetermined
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	fmt.Fprintf(&b, " (after %d bytes read, during command %d, length %d)", e.BytesRead, e.Command, e.Length)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches an ErrorKind target against the error's kind
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}
