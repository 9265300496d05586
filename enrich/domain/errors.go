package domain

import (
	"errors"
	"fmt"
)

// Kind classifica uma falha do pipeline. A camada HTTP traduz Kind para status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindRateLimit
	KindFetch
	KindTimeout
	KindExtraction
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimit:
		return "rate_limit"
	case KindFetch:
		return "fetch"
	case KindTimeout:
		return "timeout"
	case KindExtraction:
		return "extraction"
	case KindUnsupported:
		return "unsupported"
	default:
		return "internal"
	}
}

// Error carrega o Kind, a operação onde falhou e a causa.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string) error {
	return &Error{Kind: KindValidation, Op: "validate", Msg: msg}
}

func FetchError(msg string, err error) error {
	return &Error{Kind: KindFetch, Op: "fetch", Msg: msg, Err: err}
}

func TimeoutError(err error) error {
	return &Error{Kind: KindTimeout, Op: "fetch", Msg: "upstream timeout", Err: err}
}

func ExtractionError(msg string) error {
	return &Error{Kind: KindExtraction, Op: "extract", Msg: msg}
}

func UnsupportedContentError(contentType string) error {
	return &Error{Kind: KindUnsupported, Op: "fetch", Msg: "unsupported content-type " + fmt.Sprintf("%q", contentType)}
}

// KindOf devolve o Kind do primeiro *Error na cadeia, ou KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Message devolve a mensagem pública do erro (sem a causa interna).
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Msg != "" {
		return de.Msg
	}
	return "unexpected error"
}
