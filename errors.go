package ethtool

import (
	"errors"
	"fmt"
	"strings"
)

// Errors which may be reported by a DecodeError.
var (
	// ErrTruncated indicates that a record declares more bytes than remain
	// in its buffer.
	ErrTruncated = errors.New("truncated attribute")

	// ErrInvalidLength indicates that a record's length does not match the
	// fixed width of its kind, or cannot describe a record at all.
	ErrInvalidLength = errors.New("invalid attribute length")

	// ErrInvalidValue indicates that a payload is outside of the legal
	// domain of its kind, such as a boolean byte other than 0 or 1.
	ErrInvalidValue = errors.New("invalid attribute value")
)

var (
	// ErrNotImplemented is returned when encoding an attribute which the
	// kernel only reports and this package cannot emit.
	ErrNotImplemented = errors.New("attribute emission not implemented")

	// ErrTooLarge is returned when an attribute payload cannot be described
	// by a 16-bit record length.
	ErrTooLarge = errors.New("attribute payload too large")

	// errClosed is returned by a Transport which has been closed.
	errClosed = errors.New("use of closed transport")
)

// A Frame identifies one attribute on the path to a decoding failure.
type Frame struct {
	// Kind is the full kind of the enclosing attribute, flags included.
	Kind Kind

	// Name is the protocol name of Kind, such as "LINKSTATE_HEADER".
	Name string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s(%d)", f.Name, f.Kind.Type())
}

var _ error = &DecodeError{}

// A DecodeError is produced when an attribute buffer cannot be decoded.
// Its Frames name the path from the outermost attribute to the malformed
// one, so a failure can be diagnosed without parsing the input again.
type DecodeError struct {
	// Frames are ordered outermost first.  Frames may be empty when the
	// buffer is too short to identify any attribute.
	Frames []Frame

	// Err is ErrTruncated, ErrInvalidLength, or ErrInvalidValue.
	Err error

	// Detail describes the violated expectation.
	Detail string
}

// newDecodeError creates a DecodeError for the attribute identified by f.
func newDecodeError(f Frame, err error, detail string) *DecodeError {
	return &DecodeError{
		Frames: []Frame{f},
		Err:    err,
		Detail: detail,
	}
}

// within records that a failure occurred inside of the attribute f.  Errors
// other than *DecodeError are returned unchanged.
func within(f Frame, err error) error {
	var derr *DecodeError
	if !errors.As(err, &derr) {
		return err
	}

	frames := make([]Frame, 0, len(derr.Frames)+1)
	frames = append(frames, f)
	frames = append(frames, derr.Frames...)

	return &DecodeError{
		Frames: frames,
		Err:    derr.Err,
		Detail: derr.Detail,
	}
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var sb strings.Builder
	sb.WriteString("ethtool: decode")
	for _, f := range e.Frames {
		sb.WriteString(" ")
		sb.WriteString(f.String())
		sb.WriteString(":")
	}
	sb.WriteString(" ")
	sb.WriteString(e.Err.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	return sb.String()
}

// Unwrap returns the underlying sentinel error.
func (e *DecodeError) Unwrap() error { return e.Err }

var _ error = &OpError{}

// An OpError is an error produced as the result of a failed transport
// operation, such as submitting a request or receiving its replies.
type OpError struct {
	// Op is the operation which caused this OpError, such as "send"
	// or "receive".
	Op string

	// Err is the underlying error which caused this OpError.
	Err error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	return fmt.Sprintf("ethtool %q: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *OpError) Unwrap() error { return e.Err }

// Is enables OpError comparison with sentinel errors that are part of the
// package's API contract such as os.ErrNotExist and os.ErrPermission.
func (e *OpError) Is(target error) bool { return isErrno(e.Err, target) }
