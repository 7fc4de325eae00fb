/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package store defines the gateway interface the entity controllers use to
// reach the document store. Two implementations exist: store/mongo for the
// real database and store/memory for tests. The gateway deliberately exposes
// single-document operations only; the store's unique-field indexes and
// per-document atomicity are the consistency primitives this service builds
// on, and there are no multi-document transactions.
package store

import (
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound occurs when a selector matches no document.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate occurs when an insert or update violates a unique index.
	// It is the authoritative collision signal for generated codes; the
	// pre-insert existence checks in the controllers are advisory only.
	ErrDuplicate = errors.New("duplicate key")

	// ErrTimeout occurs when a store call exceeded its deadline.
	ErrTimeout = errors.New("store call timed out")
)

// Master hands out request-scoped gateways. The mongo implementation copies
// the session per request and the release func closes the copy; the memory
// implementation hands back itself with a no-op release.
type Master interface {
	Session() (Gateway, func())
}

// Index describes a single-field index to ensure on a collection.
type Index struct {
	Field  string
	Unique bool
}

// Gateway is the single-document access surface over the store.
//
// Update operators follow the mongo vocabulary ($set, $unset, $push, $pull,
// $in in selectors); both implementations honor the same subset. Array
// mutations via $push/$pull are atomic per document, which is what keeps
// concurrent owner-array updates (robot.deliveries and friends) from losing
// entries.
type Gateway interface {
	// FindOne unmarshals the first document matching selector into result.
	// Returns ErrNotFound when nothing matches.
	FindOne(collection string, selector bson.M, result interface{}) error

	// FindAll unmarshals every document matching selector into result,
	// which must be a pointer to a slice. A nil selector matches all.
	FindAll(collection string, selector bson.M, result interface{}) error

	// Insert adds a document. Returns ErrDuplicate on a unique index violation.
	Insert(collection string, document interface{}) error

	// Update applies update to the first document matching selector.
	// Returns ErrNotFound when nothing matches.
	Update(collection string, selector bson.M, update bson.M) error

	// UpdateAll applies update to every document matching selector and
	// reports how many documents matched.
	UpdateAll(collection string, selector bson.M, update bson.M) (int, error)

	// Remove deletes the first document matching selector.
	// Returns ErrNotFound when nothing matches.
	Remove(collection string, selector bson.M) error

	// Count reports how many documents match selector.
	Count(collection string, selector bson.M) (int, error)
}
