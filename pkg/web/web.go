/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ctxKey represents the type of value for the context key
type ctxKey int

// KeyValues is how request values or stored/retrieved.
const KeyValues ctxKey = 1

// ContextValues carries request-scoped values through the handler chain.
type ContextValues struct {
	TraceID    string
	Method     string
	RequestURI string
	Now        time.Time
}

// Handler is the signature used by all application handlers in this service.
type Handler func(ctx context.Context, writer http.ResponseWriter, request *http.Request) error

// ServeHTTP implements the http.Handler interface.
// It stamps a TraceID for the request before calling the wrapped handler,
// and translates any returned error into a JSON error response.
func (handler Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {

	values := ContextValues{
		TraceID:    uuid.New().String(),
		Method:     request.Method,
		RequestURI: request.RequestURI,
		Now:        time.Now(),
	}
	ctx := context.WithValue(request.Context(), KeyValues, &values)

	if err := handler(ctx, writer, request); err != nil {
		Error(ctx, writer, err)
	}
}
