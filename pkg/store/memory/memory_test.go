/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package memory

import (
	"sync"
	"testing"

	"github.com/globalsign/mgo/bson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/delivery-service/pkg/store"
)

type document struct {
	ID    string   `bson:"id"`
	Code  string   `bson:"code"`
	Items []string `bson:"items"`
}

func newTestDB(t *testing.T) *DB {
	db := NewDB()
	err := db.EnsureIndexes(map[string][]store.Index{
		"documents": {{Field: "code", Unique: true}},
	})
	require.NoError(t, err)
	return db
}

func TestInsertAndFindOne(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))

	var found document
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Equal(t, "c1", found.Code)
}

func TestFindOneNotFound(t *testing.T) {
	db := newTestDB(t)

	var found document
	err := db.FindOne("documents", bson.M{"id": "missing"}, &found)
	assert.Equal(t, store.ErrNotFound, err)
}

func TestUniqueIndexRejection(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))
	err := db.Insert("documents", document{ID: "d2", Code: "c1"})
	assert.Equal(t, store.ErrDuplicate, err)
}

func TestUpdateSetAndUnset(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))

	err := db.Update("documents", bson.M{"id": "d1"}, bson.M{"$set": bson.M{"code": "c2"}})
	require.NoError(t, err)

	var found document
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Equal(t, "c2", found.Code)

	err = db.Update("documents", bson.M{"id": "d1"}, bson.M{"$unset": bson.M{"code": 1}})
	require.NoError(t, err)
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Equal(t, "", found.Code)
}

func TestPushAndPull(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))

	for _, item := range []string{"a", "b", "c"} {
		err := db.Update("documents", bson.M{"id": "d1"}, bson.M{"$push": bson.M{"items": item}})
		require.NoError(t, err)
	}

	var found document
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Equal(t, []string{"a", "b", "c"}, found.Items)

	err := db.Update("documents", bson.M{"id": "d1"}, bson.M{"$pull": bson.M{"items": "b"}})
	require.NoError(t, err)
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Equal(t, []string{"a", "c"}, found.Items)
}

func TestUpdateAllWithIn(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))
	require.NoError(t, db.Insert("documents", document{ID: "d2", Code: "c2"}))
	require.NoError(t, db.Insert("documents", document{ID: "d3", Code: "c3"}))

	matched, err := db.UpdateAll("documents",
		bson.M{"id": bson.M{"$in": []string{"d1", "d3", "d9"}}},
		bson.M{"$set": bson.M{"code": "x"}})
	require.NoError(t, err)
	assert.Equal(t, 2, matched)
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))

	require.NoError(t, db.Remove("documents", bson.M{"id": "d1"}))
	assert.Equal(t, store.ErrNotFound, db.Remove("documents", bson.M{"id": "d1"}))

	count, err := db.Count("documents", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRegexSelector(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "Ward-East"}))

	count, err := db.Count("documents", bson.M{"code": bson.M{"$regex": "ward", "$options": "i"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Concurrent pushes against one document must not lose entries.
func TestConcurrentPush(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Insert("documents", document{ID: "d1", Code: "c1"}))

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := db.Update("documents", bson.M{"id": "d1"}, bson.M{"$push": bson.M{"items": "x"}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var found document
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Len(t, found.Items, workers)
}

type nestedDocument struct {
	ID       string   `bson:"id"`
	Timeline timeline `bson:"timeline"`
}

type timeline struct {
	Created string `bson:"created,omitempty"`
	Queued  string `bson:"queued,omitempty"`
}

func TestDottedPathSetAndUnset(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Insert("documents", nestedDocument{ID: "d1", Timeline: timeline{Created: "a"}}))

	err := db.Update("documents", bson.M{"id": "d1"}, bson.M{
		"$set": bson.M{"timeline.queued": "b"},
	})
	require.NoError(t, err)

	var found nestedDocument
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &found))
	assert.Equal(t, "a", found.Timeline.Created)
	assert.Equal(t, "b", found.Timeline.Queued)

	err = db.Update("documents", bson.M{"id": "d1"}, bson.M{
		"$unset": bson.M{"timeline.queued": 1},
	})
	require.NoError(t, err)

	var after nestedDocument
	require.NoError(t, db.FindOne("documents", bson.M{"id": "d1"}, &after))
	assert.Equal(t, "a", after.Timeline.Created)
	assert.Empty(t, after.Timeline.Queued)
}
