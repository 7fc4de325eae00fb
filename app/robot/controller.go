/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package robot

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/medifleet/delivery-service/pkg/statemodel"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Collection is the robots collection name.
const Collection = "robots"

// Create registers a new robot with default mode and settings. The serial
// number is unique across the fleet; the store index enforces it.
func Create(gw store.Gateway, serialNumber string, name string) (*Robot, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Create-Robot.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Create-Robot.Success`, nil)
	mDuplicateErr := metrics.GetOrRegisterGauge(`Delivery.Create-Robot.Duplicate-Error`, nil)
	mInsertErr := metrics.GetOrRegisterGauge(`Delivery.Create-Robot.Insert-Error`, nil)
	mInsertLatency := metrics.GetOrRegisterTimer(`Delivery.Create-Robot.Insert-Latency`, nil)

	newRobot := Robot{
		ID:           uuid.New().String(),
		SerialNumber: serialNumber,
		Name:         name,
		Status:       statemodel.RobotActive,
		Mode:         statemodel.ModeStandby,
		Locations:    []string{},
		Deliveries:   []string{},
		Settings:     DefaultSettings(),
		Registered:   time.Now(),
	}

	insertTimer := time.Now()
	if err := gw.Insert(Collection, newRobot); err != nil {
		if errors.Cause(err) == store.ErrDuplicate {
			mDuplicateErr.Update(1)
			return nil, errors.Wrapf(web.ErrDuplicate, "serial number %s already registered", serialNumber)
		}
		mInsertErr.Update(1)
		return nil, errors.Wrap(err, "db.robots.insert()")
	}
	mInsertLatency.Update(time.Since(insertTimer))

	mSuccess.Update(1)
	return &newRobot, nil
}

// FindByID retrieves one robot by its document id.
func FindByID(gw store.Gateway, robotID string) (*Robot, error) {
	var found Robot
	if err := gw.FindOne(Collection, bson.M{"id": robotID}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, errors.Wrapf(web.ErrNotFound, "robot %s", robotID)
		}
		return nil, errors.Wrap(err, "db.robots.findOne()")
	}
	return &found, nil
}

// Retrieve returns all robots matching selector; a nil selector matches all.
func Retrieve(gw store.Gateway, selector bson.M) ([]Robot, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Retrieve-Robot.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Robot.Success`, nil)
	mFindErr := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Robot.Find-Error`, nil)
	mFindLatency := metrics.GetOrRegisterTimer(`Delivery.Retrieve-Robot.Find-Latency`, nil)

	var robots []Robot

	retrieveTimer := time.Now()
	if err := gw.FindAll(Collection, selector, &robots); err != nil {
		mFindErr.Update(1)
		return nil, errors.Wrap(err, "db.robots.find()")
	}
	mFindLatency.Update(time.Since(retrieveTimer))

	mSuccess.Update(1)
	return robots, nil
}

// UpdateSettings replaces the robot's settings record.
func UpdateSettings(gw store.Gateway, robotID string, settings Settings) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Update-Robot-Settings.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Update-Robot-Settings.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Update-Robot-Settings.NotFound-Error`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Update-Robot-Settings.Update-Error`, nil)

	err := gw.Update(Collection, bson.M{"id": robotID}, bson.M{"$set": bson.M{"settings": settings}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			mErrNotFound.Update(1)
			return errors.Wrapf(web.ErrNotFound, "robot %s", robotID)
		}
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.robots.update()")
	}

	mSuccess.Update(1)
	return nil
}

// Deactivate takes the robot out of service.
func Deactivate(gw store.Gateway, robotID string) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Deactivate-Robot.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Deactivate-Robot.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Deactivate-Robot.NotFound-Error`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Deactivate-Robot.Update-Error`, nil)

	err := gw.Update(Collection, bson.M{"id": robotID},
		bson.M{"$set": bson.M{"status": statemodel.RobotOutOfOrder, "mode": statemodel.ModeStandby}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			mErrNotFound.Update(1)
			return errors.Wrapf(web.ErrNotFound, "robot %s", robotID)
		}
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.robots.update()")
	}

	mSuccess.Update(1)
	return nil
}

// Reset reinitializes status, mode and settings and clears both reference
// lists in one atomic document update. Attached locations and tasks are not
// deleted or reassigned; they keep their robot field and stay orphaned
// until an operator re-registers them.
func Reset(gw store.Gateway, robotID string) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Reset-Robot.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Reset-Robot.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Reset-Robot.NotFound-Error`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Reset-Robot.Update-Error`, nil)

	err := gw.Update(Collection, bson.M{"id": robotID}, bson.M{"$set": bson.M{
		"status":     statemodel.RobotActive,
		"mode":       statemodel.ModeStandby,
		"settings":   DefaultSettings(),
		"locations":  []string{},
		"deliveries": []string{},
	}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			mErrNotFound.Update(1)
			return errors.Wrapf(web.ErrNotFound, "robot %s", robotID)
		}
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.robots.update()")
	}

	mSuccess.Update(1)
	return nil
}
