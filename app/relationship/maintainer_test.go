/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package relationship

import (
	"testing"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/pkg/store/memory"
	"github.com/medifleet/delivery-service/pkg/web"
)

type owner struct {
	ID         string   `bson:"id"`
	Deliveries []string `bson:"deliveries"`
}

func TestMain(m *testing.M) {
	if err := config.InitConfig(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestAttachAndDetach(t *testing.T) {
	db := memory.NewDB()
	require.NoError(t, db.Insert("robots", owner{ID: "r1"}))

	require.NoError(t, Attach(db, "robots", bson.M{"id": "r1"}, "deliveries", "t1"))
	require.NoError(t, Attach(db, "robots", bson.M{"id": "r1"}, "deliveries", "t2"))

	var robot owner
	require.NoError(t, db.FindOne("robots", bson.M{"id": "r1"}, &robot))
	assert.Equal(t, []string{"t1", "t2"}, robot.Deliveries)

	require.NoError(t, Detach(db, "robots", bson.M{"id": "r1"}, "deliveries", "t1"))
	require.NoError(t, db.FindOne("robots", bson.M{"id": "r1"}, &robot))
	assert.Equal(t, []string{"t2"}, robot.Deliveries)
}

func TestAttachMissingOwnerIsPartialWrite(t *testing.T) {
	db := memory.NewDB()

	err := Attach(db, "robots", bson.M{"id": "missing"}, "deliveries", "t1")
	assert.Equal(t, web.ErrPartialWrite, errors.Cause(err))
}

// flakyGateway fails a fixed number of updates before succeeding.
type flakyGateway struct {
	*memory.DB
	failures int
}

func (f *flakyGateway) Update(collection string, selector bson.M, update bson.M) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("transient store failure")
	}
	return f.DB.Update(collection, selector, update)
}

func TestAttachRetriesTransientFailures(t *testing.T) {
	db := memory.NewDB()
	require.NoError(t, db.Insert("robots", owner{ID: "r1"}))

	flaky := &flakyGateway{DB: db, failures: 2}
	require.NoError(t, Attach(flaky, "robots", bson.M{"id": "r1"}, "deliveries", "t1"))

	var robot owner
	require.NoError(t, db.FindOne("robots", bson.M{"id": "r1"}, &robot))
	assert.Equal(t, []string{"t1"}, robot.Deliveries)
}

func TestAttachGivesUpAfterBoundedRetries(t *testing.T) {
	db := memory.NewDB()
	require.NoError(t, db.Insert("robots", owner{ID: "r1"}))

	flaky := &flakyGateway{DB: db, failures: 100}
	err := Attach(flaky, "robots", bson.M{"id": "r1"}, "deliveries", "t1")
	assert.Equal(t, web.ErrPartialWrite, errors.Cause(err))
}
