package calendar

import (
	"errors"
	"fmt"
)

// ErrorKind classifies calendar acquisition failures
type ErrorKind int

const (
	// KindRemoteUnavailable means the remote source failed: transport error or non-200 status
	KindRemoteUnavailable ErrorKind = iota + 1
	// KindCorruptData means a document failed structural validation
	KindCorruptData
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemoteUnavailable:
		return "remote unavailable"
	case KindCorruptData:
		return "corrupt data"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks
var (
	ErrRemoteUnavailable = &Error{Kind: KindRemoteUnavailable}
	ErrCorruptData       = &Error{Kind: KindCorruptData}
)

// Error is returned by the cache manager and the normalizer
type Error struct {
	Kind ErrorKind
	Year int
	Err  error
}

func (e *Error) Error() string {
	msg := "calendar: " + e.Kind.String()
	if e.Year != 0 {
		msg += fmt.Sprintf(" (year %d)", e.Year)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of a calendar error, or 0 if err is not one
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func remoteUnavailable(year int, format string, args ...interface{}) error {
	return &Error{Kind: KindRemoteUnavailable, Year: year, Err: fmt.Errorf(format, args...)}
}

func corruptData(year int, format string, args ...interface{}) error {
	return &Error{Kind: KindCorruptData, Year: year, Err: fmt.Errorf(format, args...)}
}
