package common

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindConflict
	KindInvalid
)

// CommandError carries a message meant for the invoking user. Anything
// that is not a CommandError is an internal failure and goes through
// SendError instead.
type CommandError struct {
	Kind ErrorKind
	Msg  string
}

func (e *CommandError) Error() string {
	return e.Msg
}

func NotFoundf(format string, args ...any) error {
	return &CommandError{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &CommandError{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...any) error {
	return &CommandError{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
