package wire

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSourceExhausted signals that the byte source returned fewer bytes than
// requested outside of a record boundary, i.e. true EOF. It is the sole
// recoverable fault at the framing boundary.
var ErrSourceExhausted = errors.New("wire: source exhausted")

// DecodeError reports a structurally invalid packet or record. It is fatal:
// callers are expected to stop decoding and propagate it, since a trusted
// daemon producing malformed bytes indicates either a bug or a transport
// failure worth investigating.
type DecodeError struct {
	Offset int64
	Tag    string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode error at offset %d (%s): %v", e.Offset, e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func newDecodeError(offset int64, tag string, err error) error {
	return &DecodeError{Offset: offset, Tag: tag, Err: errors.WithStack(err)}
}

var (
	errMissingAt     = errors.New("missing '@' separator")
	errMissingColon  = errors.New("missing ':' separator")
	errMissingDot    = errors.New("missing '.' separator")
	errShortRecord   = errors.New("record shorter than its fixed prefix")
	errUnknownTag    = errors.New("unrecognized record tag")
	errBadFirstRec   = errors.New("first record has unexpected type")
	errDanglingRecs  = errors.New("records remain after the final window mark")
	errPlenMismatch  = errors.New("plen does not match bytes read")
)
