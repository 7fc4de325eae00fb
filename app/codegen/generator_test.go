/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package codegen

import (
	"regexp"
	"testing"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/store/memory"
	"github.com/medifleet/delivery-service/pkg/web"
)

var taskCodePattern = regexp.MustCompile(`^T-\d{4}$`)

func newTestDB(t *testing.T) *memory.DB {
	db := memory.NewDB()
	err := db.EnsureIndexes(map[string][]store.Index{
		"tasks":      {{Field: "task_id", Unique: true}},
		"recipients": {{Field: "patient_id", Unique: true}},
	})
	require.NoError(t, err)
	return db
}

func TestGenerateShape(t *testing.T) {
	db := newTestDB(t)

	code, err := Generate(db, Task)
	require.NoError(t, err)
	assert.Regexp(t, taskCodePattern, code)
}

func TestGenerateRecipientPrefix(t *testing.T) {
	db := newTestDB(t)

	code, err := Generate(db, Recipient)
	require.NoError(t, err)
	assert.Regexp(t, `^P-\d{4}$`, code)
}

type taskDoc struct {
	TaskID string `bson:"task_id"`
}

func TestGenerateAndInsertUnique(t *testing.T) {
	db := newTestDB(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateAndInsert(db, Task, func(code string) interface{} {
			return taskDoc{TaskID: code}
		})
		require.NoError(t, err)
		assert.False(t, seen[code], "code %s issued twice", code)
		seen[code] = true
	}
}

func TestGenerateExhaustedWhenSpaceFull(t *testing.T) {
	db := newTestDB(t)

	// Fill up codes so that generation keeps colliding. Filling the whole
	// 10000-code space is slow; exhausting the pre-check is enough when the
	// store already contains every code the generator can land on. Use a
	// store whose Count always reports a collision instead.
	exhausted := collidingStore{DB: db}

	_, err := Generate(exhausted, Task)
	assert.Equal(t, web.ErrGenerationExhausted, errors.Cause(err))
}

// collidingStore reports every code as taken.
type collidingStore struct {
	*memory.DB
}

func (collidingStore) Count(collection string, selector bson.M) (int, error) {
	return 1, nil
}
