package music

import (
	"errors"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrInvalidDuration         = errors.New("invalid duration")
	ErrTranspositionOutOfRange = errors.New("transposition out of range")
	ErrNoActiveRecording       = errors.New("no active recording")
	ErrNoSelectedMemory        = errors.New("no selected memory")
	ErrMalformedImport         = errors.New("malformed import")
	ErrIndexOutOfRange         = errors.New("index out of range")
	ErrInvalidTempo            = errors.New("invalid tempo")
	ErrInvalidEvent            = errors.New("invalid event")
)

// invalid tags err as a caller mistake and attaches the message shown to the user.
func invalid(err error, msg, desc string) error {
	return fault.Wrap(err, fmsg.WithDesc(msg, desc), ftag.With(ftag.InvalidArgument))
}

func notFound(err error, msg string) error {
	return fault.Wrap(err, fmsg.With(msg), ftag.With(ftag.NotFound))
}

// Issue is the user-facing text of err, falling back to its message.
func Issue(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}
