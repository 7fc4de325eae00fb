/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package recipient

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/pkg/statemodel"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/store/memory"
	"github.com/medifleet/delivery-service/pkg/web"
)

func TestMain(m *testing.M) {
	if err := config.InitConfig(); err != nil {
		panic(err)
	}
	m.Run()
}

type fixture struct {
	db        *memory.DB
	ward      *location.Location
	rfidTag   *identification.Tag
	bleBeacon *identification.Tag
}

func newFixture(t *testing.T) fixture {
	db := memory.NewDB()
	err := db.EnsureIndexes(map[string][]store.Index{
		robot.Collection:          {{Field: "serial_number", Unique: true}},
		location.Collection:       {{Field: "name", Unique: true}},
		identification.Collection: {{Field: "tag_code", Unique: true}, {Field: "tag_id", Unique: true}},
		Collection:                {{Field: "patient_id", Unique: true}},
	})
	require.NoError(t, err)

	courier, err := robot.Create(db, "SN-001", "courier")
	require.NoError(t, err)
	ward, err := location.Create(db, "Ward 3", location.Coordinates{X: 1, Y: 2}, courier.ID, location.TypeWard, "")
	require.NoError(t, err)
	rfidTag, err := identification.Create(db, identification.TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)
	bleBeacon, err := identification.Create(db, identification.TypeBLE, "BLE-200", "04:CC:DD", -60)
	require.NoError(t, err)

	return fixture{db: db, ward: ward, rfidTag: rfidTag, bleBeacon: bleBeacon}
}

func (f fixture) createRequest() CreateRequest {
	return CreateRequest{
		Name:        "Pat One",
		LocationID:  f.ward.ID,
		RFIDTagID:   f.rfidTag.ID,
		BLEBeaconID: f.bleBeacon.ID,
	}
}

func TestCreateSnapshotsRobotFromLocation(t *testing.T) {
	f := newFixture(t)

	created, err := Create(f.db, f.createRequest())
	require.NoError(t, err)

	assert.Regexp(t, `^P-\d{4}$`, created.PatientID)
	assert.Equal(t, f.ward.Robot, created.Robot)
	assert.Equal(t, statemodel.RecipientActive, created.Status)
	assert.Empty(t, created.DeliveryHistory)
}

func TestCreateBindsBothTags(t *testing.T) {
	f := newFixture(t)

	created, err := Create(f.db, f.createRequest())
	require.NoError(t, err)

	for _, tagID := range []string{f.rfidTag.ID, f.bleBeacon.ID} {
		bound, err := identification.FindByID(f.db, tagID)
		require.NoError(t, err)
		assert.Equal(t, statemodel.TagActive, bound.Status)
		assert.Equal(t, created.ID, bound.AssignedTo)
	}
}

func TestCreateUnknownLocation(t *testing.T) {
	f := newFixture(t)

	request := f.createRequest()
	request.LocationID = "missing"
	_, err := Create(f.db, request)
	assert.Equal(t, web.ErrNotFound, errors.Cause(err))
}

func TestCreateUnknownTag(t *testing.T) {
	f := newFixture(t)

	request := f.createRequest()
	request.BLEBeaconID = "missing"
	_, err := Create(f.db, request)
	assert.Equal(t, web.ErrNotFound, errors.Cause(err))
}

func TestCreateRejectsMismatchedTagType(t *testing.T) {
	f := newFixture(t)

	request := f.createRequest()
	request.RFIDTagID = f.bleBeacon.ID
	_, err := Create(f.db, request)
	assert.Equal(t, web.ErrInvalidInput, errors.Cause(err))
}

func TestCreateUniquePatientIDs(t *testing.T) {
	f := newFixture(t)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		request := f.createRequest()
		created, err := Create(f.db, request)
		require.NoError(t, err)
		assert.False(t, seen[created.PatientID], "patient id %s issued twice", created.PatientID)
		seen[created.PatientID] = true
	}
}

func TestCheckOutReleasesTags(t *testing.T) {
	f := newFixture(t)
	created, err := Create(f.db, f.createRequest())
	require.NoError(t, err)

	require.NoError(t, CheckOut(f.db, created.ID))

	found, err := FindByID(f.db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, statemodel.RecipientCheckedOut, found.Status)

	for _, tagID := range []string{f.rfidTag.ID, f.bleBeacon.ID} {
		released, err := identification.FindByID(f.db, tagID)
		require.NoError(t, err)
		assert.Equal(t, statemodel.TagAvailable, released.Status)
		assert.Empty(t, released.AssignedTo)
	}
}

func TestCheckOutNotFound(t *testing.T) {
	f := newFixture(t)
	err := CheckOut(f.db, "missing")
	assert.Equal(t, web.ErrNotFound, errors.Cause(err))
}
