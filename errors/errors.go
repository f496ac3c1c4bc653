package errors

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Code identifies a class of failure surfaced by the offer core. Every
// error returned across the public API carries exactly one code.
type Code struct {
	Code uint16
	Name string
}

var (
	// Encoding covers input bytes or strings that do not canonically decode.
	Encoding = Code{1, "encoding"}
	// Length covers identifier buffers that are not exactly 32 bytes.
	Length = Code{2, "length"}
	// Structural covers decoded objects violating settlement or offer
	// structural invariants.
	Structural = Code{3, "structural"}
	// CryptoVerification covers aggregated signatures that do not validate
	// and puzzle reveals that do not hash to their declared puzzle hash.
	CryptoVerification = Code{4, "crypto_verification"}
)

// New creates a new error with the given code and message.
func (c Code) New(msg string, args ...any) *Error {
	return &Error{code: c, cause: fmt.Errorf(msg, args...)}
}

// Wrap creates a new error with the given code and the cause error.
func (c Code) Wrap(cause error) *Error {
	return &Error{code: c, cause: cause}
}

func (c Code) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

// Error is the concrete error type returned by the offer core.
type Error struct {
	code  Code
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.code.Name, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Code() uint16 {
	return e.code.Code
}

func (e *Error) CodeName() string {
	return e.code.Name
}

func (e *Error) Log() *log.Entry {
	return log.WithField("name", e.code.Name).WithField("code", e.code.Code)
}

// HasCode reports whether err or any error in its chain carries the given
// code.
func HasCode(err error, c Code) bool {
	for err != nil {
		var e *Error
		if errors.As(err, &e) {
			if e.code.Code == c.Code {
				return true
			}
			err = e.cause
			continue
		}
		return false
	}
	return false
}
