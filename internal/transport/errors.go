/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 fluxview

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package transport establishes authenticated sessions to the orchestration
// API and exposes namespaced/cluster-wide list/watch/patch/delete
// primitives over dynamic objects, classified into the stable error
// taxonomy every other component reacts to.
package transport

import (
	"context"
	"errors"
	"net"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ErrorKind is the stable, component-agnostic error taxonomy from the spec.
type ErrorKind string

const (
	ErrAuth         ErrorKind = "Auth"
	ErrNetwork      ErrorKind = "Network"
	ErrNotFound     ErrorKind = "NotFound"
	ErrUnauthorized ErrorKind = "Unauthorized"
	ErrForbidden    ErrorKind = "Forbidden"
	ErrConflict     ErrorKind = "Conflict"
	ErrThrottled    ErrorKind = "Throttled"
	ErrTimeout      ErrorKind = "Timeout"
	ErrInvalid      ErrorKind = "Invalid"
	ErrInternal     ErrorKind = "Internal"
	ErrOther        ErrorKind = "Other"
)

// Error wraps an underlying error with its classified kind, and optionally
// the kind of resource involved (for NotFound errors against an unknown CRD).
type Error struct {
	ErrKind  ErrorKind
	Resource string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.ErrKind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a raw error from the API client into the stable taxonomy.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case apierrors.IsNotFound(err):
		return &Error{ErrKind: ErrNotFound, Err: err}
	case apierrors.IsUnauthorized(err):
		return &Error{ErrKind: ErrUnauthorized, Err: err}
	case apierrors.IsForbidden(err):
		return &Error{ErrKind: ErrForbidden, Err: err}
	case apierrors.IsConflict(err):
		return &Error{ErrKind: ErrConflict, Err: err}
	case apierrors.IsTooManyRequests(err):
		return &Error{ErrKind: ErrThrottled, Err: err}
	case apierrors.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return &Error{ErrKind: ErrTimeout, Err: err}
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err):
		return &Error{ErrKind: ErrInvalid, Err: err}
	case apierrors.IsInternalError(err):
		return &Error{ErrKind: ErrInternal, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{ErrKind: ErrNetwork, Err: err}
	}

	return &Error{ErrKind: ErrOther, Err: err}
}
