/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package handlers

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/medifleet/delivery-service/app/routes/schemas"
	"github.com/medifleet/delivery-service/pkg/filter"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Response is the envelope every list/read endpoint returns.
type Response struct {
	Results interface{} `json:"results"`
}

// readAndValidate reads the request body, validates it against schema and
// unmarshals it into target. A schema violation returns the error report to
// send back with a 400; any other problem returns an error.
func readAndValidate(request *http.Request, schema string, target interface{}) (interface{}, error) {
	body, err := ioutil.ReadAll(request.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}

	validatorResult, err := schemas.ValidateSchemaRequest(body, schema)
	if err != nil {
		return nil, err
	}
	if !validatorResult.Valid() {
		return schemas.BuildErrorsString(validatorResult.Errors()), nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return nil, errors.Wrapf(web.ErrInvalidInput, "unmarshal request body: %s", err.Error())
	}
	return nil, nil
}

// queryPredicates turns recognized query parameters into selector
// predicates. equality values must match exactly; contains values match
// case-insensitive substrings. Unknown parameters are ignored.
func queryPredicates(values url.Values, equality []string, contains []string) []filter.Predicate {
	var predicates []filter.Predicate
	for _, field := range equality {
		if value := values.Get(field); value != "" {
			predicates = append(predicates, filter.Eq(field, value))
		}
	}
	for _, field := range contains {
		if value := values.Get(field); value != "" {
			predicates = append(predicates, filter.Contains(field, value))
		}
	}
	return predicates
}
