// Package services holds what every external adapter shares: the Error
// taxonomy and an instrumented HTTP caller with a hard timeout.
package services

import (
	"errors"
	"fmt"

	"github.com/m3rciful/dialogbot/core/netutil"
)

// Kind classifies an adapter failure.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindStatus    Kind = "status"
	KindPayload   Kind = "payload"
	KindTransport Kind = "transport"
	KindInput     Kind = "input"
)

// Error is the single failure type adapters return.
type Error struct {
	Service string
	Kind    Kind
	// Status is the HTTP status for KindStatus.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("services: %s: %s", e.Service, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap converts err into an *Error, keeping an existing one intact.
// Timeouts are recognised; anything else becomes KindTransport.
func Wrap(service string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	kind := KindTransport
	if netutil.IsTimeout(err) {
		kind = KindTimeout
	}
	return &Error{Service: service, Kind: kind, Err: err}
}

// Payload reports a response that could not be decoded or lacked fields.
func Payload(service string, err error) error {
	return &Error{Service: service, Kind: KindPayload, Err: err}
}

// Input reports a request rejected before it was sent.
func Input(service string, err error) error {
	return &Error{Service: service, Kind: KindInput, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
