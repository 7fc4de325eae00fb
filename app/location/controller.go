/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package location

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/medifleet/delivery-service/app/relationship"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Collection is the locations collection name.
const Collection = "locations"

// Create stores a new location owned by the given robot and appends it to
// the robot's locations list. The owning robot must exist and the name must
// be unique; the name index is the authoritative uniqueness guarantee.
// Should the back-reference update fail after retries, the stored location
// is removed again so no half-linked pair survives.
func Create(gw store.Gateway, name string, coordinates Coordinates, robotID string, locationType string, description string) (*Location, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Create-Location.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Create-Location.Success`, nil)
	mRobotNotFoundErr := metrics.GetOrRegisterGauge(`Delivery.Create-Location.RobotNotFound-Error`, nil)
	mDuplicateErr := metrics.GetOrRegisterGauge(`Delivery.Create-Location.Duplicate-Error`, nil)
	mInsertErr := metrics.GetOrRegisterGauge(`Delivery.Create-Location.Insert-Error`, nil)
	mAttachErr := metrics.GetOrRegisterGauge(`Delivery.Create-Location.Attach-Error`, nil)
	mInsertLatency := metrics.GetOrRegisterTimer(`Delivery.Create-Location.Insert-Latency`, nil)

	if !IsValidType(locationType) {
		return nil, errors.Wrapf(web.ErrInvalidInput, "unknown location type %s", locationType)
	}

	owner, err := robot.FindByID(gw, robotID)
	if err != nil {
		if errors.Cause(err) == web.ErrNotFound {
			mRobotNotFoundErr.Update(1)
		}
		return nil, err
	}

	newLocation := Location{
		ID:          uuid.New().String(),
		Name:        name,
		Coordinates: coordinates,
		Description: description,
		Type:        locationType,
		Robot:       owner.ID,
	}

	insertTimer := time.Now()
	if err := gw.Insert(Collection, newLocation); err != nil {
		if errors.Cause(err) == store.ErrDuplicate {
			mDuplicateErr.Update(1)
			return nil, errors.Wrapf(web.ErrDuplicate, "location name %s already exists", name)
		}
		mInsertErr.Update(1)
		return nil, errors.Wrap(err, "db.locations.insert()")
	}
	mInsertLatency.Update(time.Since(insertTimer))

	if err := relationship.Attach(gw, robot.Collection, bson.M{"id": owner.ID}, "locations", newLocation.ID); err != nil {
		mAttachErr.Update(1)
		// compensate the primary write before reporting the failure
		if removeErr := gw.Remove(Collection, bson.M{"id": newLocation.ID}); removeErr != nil {
			return nil, errors.Wrapf(err, "compensating location remove also failed: %s", removeErr.Error())
		}
		return nil, err
	}

	mSuccess.Update(1)
	return &newLocation, nil
}

// FindByID retrieves one location by its document id.
func FindByID(gw store.Gateway, locationID string) (*Location, error) {
	var found Location
	if err := gw.FindOne(Collection, bson.M{"id": locationID}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, errors.Wrapf(web.ErrNotFound, "location %s", locationID)
		}
		return nil, errors.Wrap(err, "db.locations.findOne()")
	}
	return &found, nil
}

// Retrieve returns all locations matching selector; a nil selector matches all.
func Retrieve(gw store.Gateway, selector bson.M) ([]Location, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Retrieve-Location.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Location.Success`, nil)
	mFindErr := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Location.Find-Error`, nil)
	mFindLatency := metrics.GetOrRegisterTimer(`Delivery.Retrieve-Location.Find-Latency`, nil)

	var locations []Location

	retrieveTimer := time.Now()
	if err := gw.FindAll(Collection, selector, &locations); err != nil {
		mFindErr.Update(1)
		return nil, errors.Wrap(err, "db.locations.find()")
	}
	mFindLatency.Update(time.Since(retrieveTimer))

	mSuccess.Update(1)
	return locations, nil
}
