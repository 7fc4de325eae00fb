/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package schemas

import (
	"github.com/medifleet/delivery-service/pkg/web"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateSchemaRequest validates the api request body with the required json schema
func ValidateSchemaRequest(jsonBody []byte, schema string) (*gojsonschema.Result, error) {
	if len(jsonBody) == 0 {
		return nil, errors.Wrapf(web.ErrInvalidInput, "request body cannot be empty")
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(jsonBody)

	validatorResult, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, errors.Wrapf(web.ErrInvalidInput, err.Error())
	}

	return validatorResult, nil
}

// ErrorList provides a collection of errors for processing
type ErrorList struct {
	// The error list
	Errors []ErrReport `json:"errors"`
}

// ErrReport is used to wrap schema validation errors int json object
type ErrReport struct {
	Field       string      `json:"field"`
	ErrorType   string      `json:"errortype"`
	Value       interface{} `json:"value"`
	Description string      `json:"description"`
}

// BuildErrorsString concatenates errors and builds pretty error strings
func BuildErrorsString(resultsErrors []gojsonschema.ResultError) interface{} {

	var report ErrReport
	var errorSlice []ErrReport
	var errorList ErrorList

	for _, resultError := range resultsErrors {

		// Field() is not set for "required" errors
		var field string
		if property, ok := resultError.Details()["property"].(string); ok {
			field = property
		} else {
			field = resultError.Field()
		}

		// ignore extraneous "number_one_of" error
		if resultError.Type() == "number_one_of" {
			continue
		}
		report.Field = field
		report.Description = resultError.Description()
		report.ErrorType = resultError.Type()
		report.Value = resultError.Value()
		errorSlice = append(errorSlice, report)
	}
	errorList.Errors = errorSlice

	return errorList
}
