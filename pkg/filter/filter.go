/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package filter builds typed selector predicates for list queries, instead
// of passing free-form client maps to the store.
package filter

import (
	"regexp"

	"github.com/globalsign/mgo/bson"
)

// op is the predicate kind; one per supported comparison.
type op int

const (
	opEq op = iota
	opIn
	opContains
)

// Predicate is one field condition.
type Predicate struct {
	field    string
	operator op
	value    interface{}
}

// Eq matches documents whose field equals value.
func Eq(field string, value interface{}) Predicate {
	return Predicate{field: field, operator: opEq, value: value}
}

// In matches documents whose field equals any of values.
func In(field string, values []string) Predicate {
	return Predicate{field: field, operator: opIn, value: values}
}

// Contains matches documents whose string field contains substr,
// case-insensitively.
func Contains(field string, substr string) Predicate {
	return Predicate{field: field, operator: opContains, value: substr}
}

// Selector combines predicates into a store selector. All predicates must
// hold. An empty predicate set yields nil, which matches every document.
func Selector(predicates ...Predicate) bson.M {
	if len(predicates) == 0 {
		return nil
	}
	selector := bson.M{}
	for _, p := range predicates {
		switch p.operator {
		case opEq:
			selector[p.field] = p.value
		case opIn:
			selector[p.field] = bson.M{"$in": p.value}
		case opContains:
			selector[p.field] = bson.M{
				"$regex":   regexp.QuoteMeta(p.value.(string)),
				"$options": "i",
			}
		}
	}
	return selector
}
