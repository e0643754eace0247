package fetcherr

import (
	"errors"
	"fmt"
)

// Kind is the coarse category of a failed fetch. All kinds end up
// as the same error record, the kind only shapes the message.
type Kind string

const (
	KindTransport  Kind = "transport error"
	KindHTTP       Kind = "http error"
	KindDecode     Kind = "decode error"
	KindDerivation Kind = "derivation error"
)

type Error struct {
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHTTP && e.URL != "":
		return fmt.Sprintf("%s: HTTP %d for %s", e.Kind, e.StatusCode, e.URL)
	case e.Kind == KindHTTP:
		return fmt.Sprintf("%s: HTTP %d", e.Kind, e.StatusCode)
	case e.URL != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.URL, e.Err.Error())
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Transport(url string, err error) error {
	return &Error{Kind: KindTransport, URL: url, Err: err}
}

func HTTP(url string, status int) error {
	return &Error{Kind: KindHTTP, URL: url, StatusCode: status}
}

func Decode(url string, err error) error {
	return &Error{Kind: KindDecode, URL: url, Err: err}
}

func Derivation(err error) error {
	return &Error{Kind: KindDerivation, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, errors
// that never went through this package are treated as transport failures.
func KindOf(err error) Kind {
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr.Kind
	}
	return KindTransport
}

// StatusCode returns the http status carried by err, or 0.
func StatusCode(err error) int {
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr.StatusCode
	}
	return 0
}
