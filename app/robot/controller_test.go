/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package robot

import (
	"testing"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/delivery-service/pkg/statemodel"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/store/memory"
	"github.com/medifleet/delivery-service/pkg/web"
)

func newTestDB(t *testing.T) *memory.DB {
	db := memory.NewDB()
	err := db.EnsureIndexes(map[string][]store.Index{
		Collection: {{Field: "serial_number", Unique: true}},
	})
	require.NoError(t, err)
	return db
}

func TestCreateDefaults(t *testing.T) {
	db := newTestDB(t)

	created, err := Create(db, "SN-001", "Ward courier")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, statemodel.RobotActive, created.Status)
	assert.Equal(t, statemodel.ModeStandby, created.Mode)
	assert.Empty(t, created.Locations)
	assert.Empty(t, created.Deliveries)
	assert.Equal(t, DefaultSettings(), created.Settings)
}

func TestCreateDuplicateSerial(t *testing.T) {
	db := newTestDB(t)

	_, err := Create(db, "SN-001", "first")
	require.NoError(t, err)

	_, err = Create(db, "SN-001", "second")
	assert.Equal(t, web.ErrDuplicate, errors.Cause(err))
}

func TestFindByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := FindByID(db, "missing")
	assert.Equal(t, web.ErrNotFound, errors.Cause(err))
}

func TestUpdateSettings(t *testing.T) {
	db := newTestDB(t)
	created, err := Create(db, "SN-001", "courier")
	require.NoError(t, err)

	settings := created.Settings
	settings.MaxSpeed = 2.5
	settings.ConfirmWithTag = false
	require.NoError(t, UpdateSettings(db, created.ID, settings))

	found, err := FindByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, found.Settings.MaxSpeed)
	assert.False(t, found.Settings.ConfirmWithTag)
}

func TestDeactivate(t *testing.T) {
	db := newTestDB(t)
	created, err := Create(db, "SN-001", "courier")
	require.NoError(t, err)

	require.NoError(t, Deactivate(db, created.ID))

	found, err := FindByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, statemodel.RobotOutOfOrder, found.Status)
	assert.Equal(t, statemodel.ModeStandby, found.Mode)
}

func TestResetClearsReferencesButKeepsOrphans(t *testing.T) {
	db := newTestDB(t)
	created, err := Create(db, "SN-001", "courier")
	require.NoError(t, err)

	// simulate attached work
	err = db.Update(Collection, bson.M{"id": created.ID},
		bson.M{"$push": bson.M{"deliveries": "t1"}})
	require.NoError(t, err)
	err = db.Update(Collection, bson.M{"id": created.ID},
		bson.M{"$push": bson.M{"locations": "l1"}})
	require.NoError(t, err)
	require.NoError(t, Deactivate(db, created.ID))

	require.NoError(t, Reset(db, created.ID))

	found, err := FindByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, statemodel.RobotActive, found.Status)
	assert.Empty(t, found.Deliveries)
	assert.Empty(t, found.Locations)
	assert.Equal(t, DefaultSettings(), found.Settings)
}

func TestResetNotFound(t *testing.T) {
	db := newTestDB(t)
	err := Reset(db, "missing")
	assert.Equal(t, web.ErrNotFound, errors.Cause(err))
}

func TestRetrieveWithSelector(t *testing.T) {
	db := newTestDB(t)
	_, err := Create(db, "SN-001", "a")
	require.NoError(t, err)
	second, err := Create(db, "SN-002", "b")
	require.NoError(t, err)
	require.NoError(t, Deactivate(db, second.ID))

	active, err := Retrieve(db, bson.M{"status": statemodel.RobotActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := Retrieve(db, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
