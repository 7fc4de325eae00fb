/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package memory implements the store gateway in process memory. It exists
// for the test suites: it honors the same selector/update subset and the
// same unique-index rejection and per-document atomicity semantics as the
// mongo gateway, so controller tests exercise real collision and concurrency
// behavior without a database instance.
package memory

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"

	"github.com/medifleet/delivery-service/pkg/store"
)

// DB is an in-memory document store. All operations serialize on one lock,
// which is what makes each document mutation atomic.
type DB struct {
	mutex       sync.Mutex
	collections map[string][]bson.M
	unique      map[string][]string
}

// NewDB returns an empty in-memory store.
func NewDB() *DB {
	return &DB{
		collections: make(map[string][]bson.M),
		unique:      make(map[string][]string),
	}
}

// Session implements store.Master. There is no session to copy in memory.
func (db *DB) Session() (store.Gateway, func()) {
	return db, func() {}
}

// EnsureIndexes records unique fields per collection; non-unique indexes are
// meaningless here and ignored.
func (db *DB) EnsureIndexes(indexes map[string][]store.Index) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for collection, collectionIndexes := range indexes {
		for _, index := range collectionIndexes {
			if index.Unique {
				db.unique[collection] = append(db.unique[collection], index.Field)
			}
		}
	}
	return nil
}

// FindOne implements store.Gateway.
func (db *DB) FindOne(collection string, selector bson.M, result interface{}) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for _, document := range db.collections[collection] {
		if matches(document, selector) {
			return decode(document, result)
		}
	}
	return store.ErrNotFound
}

// FindAll implements store.Gateway.
func (db *DB) FindAll(collection string, selector bson.M, result interface{}) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	var matched []bson.M
	for _, document := range db.collections[collection] {
		if selector == nil || matches(document, selector) {
			matched = append(matched, document)
		}
	}
	return decode(matched, result)
}

// Insert implements store.Gateway.
func (db *DB) Insert(collection string, document interface{}) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	encoded, err := encode(document)
	if err != nil {
		return err
	}

	for _, field := range db.unique[collection] {
		value, ok := encoded[field]
		if !ok {
			continue
		}
		for _, existing := range db.collections[collection] {
			if reflect.DeepEqual(existing[field], value) {
				return store.ErrDuplicate
			}
		}
	}

	db.collections[collection] = append(db.collections[collection], encoded)
	return nil
}

// Update implements store.Gateway.
func (db *DB) Update(collection string, selector bson.M, update bson.M) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i, document := range db.collections[collection] {
		if matches(document, selector) {
			updated, err := applyUpdate(document, update)
			if err != nil {
				return err
			}
			db.collections[collection][i] = updated
			return nil
		}
	}
	return store.ErrNotFound
}

// UpdateAll implements store.Gateway.
func (db *DB) UpdateAll(collection string, selector bson.M, update bson.M) (int, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	matched := 0
	for i, document := range db.collections[collection] {
		if matches(document, selector) {
			updated, err := applyUpdate(document, update)
			if err != nil {
				return matched, err
			}
			db.collections[collection][i] = updated
			matched++
		}
	}
	return matched, nil
}

// Remove implements store.Gateway.
func (db *DB) Remove(collection string, selector bson.M) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	documents := db.collections[collection]
	for i, document := range documents {
		if matches(document, selector) {
			db.collections[collection] = append(documents[:i:i], documents[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// Count implements store.Gateway.
func (db *DB) Count(collection string, selector bson.M) (int, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	count := 0
	for _, document := range db.collections[collection] {
		if selector == nil || matches(document, selector) {
			count++
		}
	}
	return count, nil
}

// matches evaluates the selector subset the controllers use: field equality
// and {"$in": [...]}.
func matches(document bson.M, selector bson.M) bool {
	for field, condition := range selector {
		value := document[field]

		if conditionMap, ok := condition.(bson.M); ok {
			if in, ok := conditionMap["$in"]; ok {
				if !containsValue(in, value) {
					return false
				}
				continue
			}
			if pattern, ok := conditionMap["$regex"]; ok {
				if !matchesRegex(pattern, conditionMap["$options"], value) {
					return false
				}
				continue
			}
			return false
		}

		if !looseEqual(value, condition) {
			return false
		}
	}
	return true
}

func matchesRegex(pattern interface{}, options interface{}, value interface{}) bool {
	patternString, ok := pattern.(string)
	if !ok {
		return false
	}
	valueString, ok := value.(string)
	if !ok {
		return false
	}
	if optionsString, _ := options.(string); strings.Contains(optionsString, "i") {
		patternString = "(?i)" + patternString
	}
	matched, err := regexp.MatchString(patternString, valueString)
	return err == nil && matched
}

func containsValue(list interface{}, value interface{}) bool {
	listValue := reflect.ValueOf(list)
	if listValue.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < listValue.Len(); i++ {
		if looseEqual(value, listValue.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// looseEqual compares scalars across the int widths bson decoding produces.
func looseEqual(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	aInt, aOk := asInt64(a)
	bInt, bOk := asInt64(b)
	return aOk && bOk && aInt == bInt
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// applyUpdate handles $set, $unset, $push and $pull against a copy of the
// document, so a failed update never leaves a half-applied document behind.
func applyUpdate(document bson.M, update bson.M) (bson.M, error) {
	updated := make(bson.M, len(document))
	for k, v := range document {
		updated[k] = v
	}

	for operator, argument := range update {
		fields, ok := argument.(bson.M)
		if !ok {
			return nil, errors.Errorf("unsupported update argument for %s", operator)
		}

		switch operator {
		case "$set":
			for field, value := range fields {
				encoded, err := encodeValue(value)
				if err != nil {
					return nil, err
				}
				setField(updated, field, encoded)
			}
		case "$unset":
			for field := range fields {
				unsetField(updated, field)
			}
		case "$push":
			for field, value := range fields {
				encoded, err := encodeValue(value)
				if err != nil {
					return nil, err
				}
				array, _ := updated[field].([]interface{})
				updated[field] = append(append([]interface{}{}, array...), encoded)
			}
		case "$pull":
			for field, value := range fields {
				array, _ := updated[field].([]interface{})
				kept := make([]interface{}, 0, len(array))
				for _, element := range array {
					if !looseEqual(element, value) {
						kept = append(kept, element)
					}
				}
				updated[field] = kept
			}
		default:
			return nil, errors.Errorf("unsupported update operator %s", operator)
		}
	}
	return updated, nil
}

// setField writes a possibly dotted field path, creating intermediate
// subdocuments the way mongo does. Subdocuments along the path are copied
// so the caller's original document is never mutated.
func setField(document bson.M, path string, value interface{}) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		child := bson.M{}
		if existing, ok := document[part].(bson.M); ok {
			for k, v := range existing {
				child[k] = v
			}
		}
		document[part] = child
		document = child
	}
	document[parts[len(parts)-1]] = value
}

func unsetField(document bson.M, path string) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		existing, ok := document[part].(bson.M)
		if !ok {
			return
		}
		child := bson.M{}
		for k, v := range existing {
			child[k] = v
		}
		document[part] = child
		document = child
	}
	delete(document, parts[len(parts)-1])
}

// encode/decode round-trip documents through bson so the memory store sees
// the same field names and value types the mongo gateway would.
func encode(document interface{}) (bson.M, error) {
	data, err := bson.Marshal(document)
	if err != nil {
		return nil, errors.Wrap(err, "bson.Marshal()")
	}
	var encoded bson.M
	if err := bson.Unmarshal(data, &encoded); err != nil {
		return nil, errors.Wrap(err, "bson.Unmarshal()")
	}
	return encoded, nil
}

func encodeValue(value interface{}) (interface{}, error) {
	wrapped, err := encode(bson.M{"v": value})
	if err != nil {
		return nil, err
	}
	return wrapped["v"], nil
}

func decode(source interface{}, result interface{}) error {
	data, err := bson.Marshal(bson.M{"v": source})
	if err != nil {
		return errors.Wrap(err, "bson.Marshal()")
	}
	wrapper := struct {
		V bson.Raw `bson:"v"`
	}{}
	if err := bson.Unmarshal(data, &wrapper); err != nil {
		return errors.Wrap(err, "bson.Unmarshal()")
	}
	if err := wrapper.V.Unmarshal(result); err != nil {
		return errors.Wrap(err, "bson.Raw.Unmarshal()")
	}
	return nil
}
