/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package identification

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
		Collection: {
			{Field: "tag_code", Unique: true},
			{Field: "tag_id", Unique: true},
		},
	})
	require.NoError(t, err)
	return db
}

func TestCreateStartsAvailable(t *testing.T) {
	db := newTestDB(t)

	created, err := Create(db, TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)
	assert.Equal(t, statemodel.TagAvailable, created.Status)
	assert.Empty(t, created.AssignedTo)
	assert.Empty(t, created.UsageHistory)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	db := newTestDB(t)

	_, err := Create(db, "nfc", "RF-100", "04:AA:BB", -40)
	assert.Equal(t, web.ErrInvalidInput, errors.Cause(err))
}

func TestUniqueCodeAcrossTypes(t *testing.T) {
	db := newTestDB(t)

	_, err := Create(db, TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)

	// same code on a ble tag must still collide
	_, err = Create(db, TypeBLE, "RF-100", "04:CC:DD", -60)
	assert.Equal(t, web.ErrDuplicate, errors.Cause(err))

	// and same hardware id as well
	_, err = Create(db, TypeBLE, "BLE-200", "04:AA:BB", -60)
	assert.Equal(t, web.ErrDuplicate, errors.Cause(err))
}

func TestAssignAndRelease(t *testing.T) {
	db := newTestDB(t)
	created, err := Create(db, TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)

	require.NoError(t, Assign(db, created.ID, "recipient-1"))
	found, err := FindByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, statemodel.TagActive, found.Status)
	assert.Equal(t, "recipient-1", found.AssignedTo)

	require.NoError(t, Release(db, created.ID))
	found, err = FindByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, statemodel.TagAvailable, found.Status)
	assert.Empty(t, found.AssignedTo)
}

func TestUpdateSignal(t *testing.T) {
	db := newTestDB(t)
	created, err := Create(db, TypeBLE, "BLE-200", "04:CC:DD", -60)
	require.NoError(t, err)

	require.NoError(t, UpdateSignal(db, created.ID, -52))

	found, err := FindByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, -52, found.SignalStrength)
}

func TestRecordUsageAppends(t *testing.T) {
	db := newTestDB(t)
	created, err := Create(db, TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)

	require.NoError(t, RecordUsage(db, created.ID, "T-0001", -45))
	require.NoError(t, RecordUsage(db, created.ID, "T-0002", -48))

	found, err := FindByID(db, created.ID)
	require.NoError(t, err)
	require.Len(t, found.UsageHistory, 2)
	assert.Equal(t, "T-0001", found.UsageHistory[0].Task)
	assert.Equal(t, "T-0002", found.UsageHistory[1].Task)
	assert.NotZero(t, found.UsageHistory[0].Timestamp)
}

func TestRetrieveAvailableOnly(t *testing.T) {
	db := newTestDB(t)
	first, err := Create(db, TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)
	_, err = Create(db, TypeBLE, "BLE-200", "04:CC:DD", -60)
	require.NoError(t, err)
	require.NoError(t, Assign(db, first.ID, "recipient-1"))

	available, err := Retrieve(db, bson.M{"status": statemodel.TagAvailable})
	require.NoError(t, err)
	assert.Len(t, available, 1)
	assert.Equal(t, TypeBLE, available[0].Type)
}
