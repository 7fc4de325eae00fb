/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// JSONError is the response for errors that occur within the API.
type JSONError struct {
	// The error message
	Error string `json:"error"`
}

var (
	// ErrNotFound occurs when a referenced entity is absent from the store.
	ErrNotFound = errors.New("Entity not found")

	// ErrDuplicate occurs when a unique field collides with an existing document
	// (location name, robot serial number, tag code/id, patient id, task id).
	ErrDuplicate = errors.New("Entity already exists")

	// ErrInvalidState occurs when an operation's status precondition is not met,
	// e.g. deleting a task that is no longer in the todo state.
	ErrInvalidState = errors.New("Entity is not in a valid state for this operation")

	// ErrUnavailable occurs when a robot or recipient is not in an operable
	// status for the requested dependent operation.
	ErrUnavailable = errors.New("Entity is not available")

	// ErrGenerationExhausted occurs when short code generation exceeds its retry bound.
	ErrGenerationExhausted = errors.New("Unable to generate a unique code")

	// ErrPartialWrite occurs when a multi-entity mutation succeeded on one
	// document and failed on a dependent one after retries.
	ErrPartialWrite = errors.New("Dependent write failed, entities may be inconsistent")

	// ErrInvalidID occurs when an ID is not in a valid form.
	ErrInvalidID = errors.New("ID is not in it's proper form")

	// ErrValidation occurs when there are validation errors.
	ErrValidation = errors.New("Validation errors occurred")

	// ErrInvalidInput occurs when the input data is invalid
	ErrInvalidInput = errors.New("Invalid input data")

	// ErrEntityTooLarge occurs when the input data is invalid
	ErrEntityTooLarge = errors.New("Request entity too large")
)

// Error handles all error responses for the API.
func Error(ctx context.Context, writer http.ResponseWriter, err error) {

	// Handling client errors
	switch errors.Cause(err) {
	case ErrNotFound:
		RespondError(ctx, writer, err, http.StatusNotFound)
		return

	case ErrDuplicate:
		RespondError(ctx, writer, err, http.StatusConflict)
		return

	case ErrInvalidState:
		RespondError(ctx, writer, err, http.StatusBadRequest)
		return

	case ErrUnavailable:
		RespondError(ctx, writer, err, http.StatusBadRequest)
		return

	case ErrInvalidID:
		RespondError(ctx, writer, err, http.StatusBadRequest)
		return

	case ErrValidation:
		RespondError(ctx, writer, err, http.StatusBadRequest)
		return

	case ErrInvalidInput:
		RespondError(ctx, writer, err, http.StatusBadRequest)
		return

	case ErrEntityTooLarge:
		RespondError(ctx, writer, err, http.StatusRequestEntityTooLarge)
		return
	}

	// Handler server error
	contextValues := ctx.Value(KeyValues).(*ContextValues)
	// Log errors
	log.WithFields(log.Fields{
		"Method":     contextValues.Method,
		"RequestURI": contextValues.RequestURI,
		"TraceID":    contextValues.TraceID,
		"Code":       http.StatusInternalServerError,
		"Error":      err.Error(),
	}).Error("Server error")

	//Send a general error to the client
	serverError := errors.New("an error has occurred. Try again")
	RespondError(ctx, writer, serverError, http.StatusInternalServerError)
}

// RespondError sends JSON describing the error
func RespondError(ctx context.Context, writer http.ResponseWriter, err error, code int) {
	Respond(ctx, writer, JSONError{Error: err.Error()}, code)
}

// Respond sends JSON to the client.
// If code is StatusNoContent, v is expected to be nil.
func Respond(ctx context.Context, writer http.ResponseWriter, data interface{}, code int) {

	contextValues := ctx.Value(KeyValues).(*ContextValues)

	// Just set the status code and we are done.
	if code == http.StatusNoContent || (code == http.StatusOK && data == nil) {
		writer.WriteHeader(code)
		return
	}
	if code == http.StatusCreated && data == nil {
		data = "Successful"
	}

	// Set the content type.
	writer.Header().Set("Content-Type", "application/json")

	// Write the status code to the response
	writer.WriteHeader(code)

	// Marshal the response data
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.WithFields(log.Fields{
			"Function": "web.response",
			"Action":   "MarshalIndent",
			"TraceId":  contextValues.TraceID,
			"Error":    err.Error(),
		}).Error("Error Marshalling JSON response")
		jsonData = []byte("{}")
	}

	// Send the result back to the client.
	_, err = writer.Write(jsonData)
	if err != nil {
		log.WithFields(log.Fields{
			"Function":   "web.response",
			"Action":     "ResponseWriter write()",
			"Method":     contextValues.Method,
			"RequestURI": contextValues.RequestURI,
			"TraceId":    contextValues.TraceID,
			"Error":      err.Error(),
		}).Error("Error writing JSON response")
	}
}
