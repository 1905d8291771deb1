package dex

import (
	"errors"
	"fmt"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
)

const (
	KindUnavailable = "unavailable"
	KindRejected    = "rejected"
	KindOther       = "other"
)

// ServiceError classifies a failed call to a pricing service
type ServiceError struct {
	Service types.ServiceID
	Op      string
	// Kind is types.ErrServiceUnavailable or types.ErrServiceRejected
	Kind   error
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unavailable wraps a request-level failure
func Unavailable(service types.ServiceID, op string, err error) error {
	return &ServiceError{Service: service, Op: op, Kind: types.ErrServiceUnavailable, Err: err}
}

// Rejected wraps a validated failure
func Rejected(service types.ServiceID, op string, status int, err error) error {
	return &ServiceError{Service: service, Op: op, Kind: types.ErrServiceRejected, Status: status, Err: err}
}

// KindOf returns the metric label for err
func KindOf(err error) string {
	switch {
	case errors.Is(err, types.ErrServiceUnavailable):
		return KindUnavailable
	case errors.Is(err, types.ErrServiceRejected):
		return KindRejected
	default:
		return KindOther
	}
}
