/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package identification

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

// Collection holds both rfid and ble tags; tag_code and tag_id are unique
// across the whole collection, not per type.
const Collection = "tags"

// Create stores a new unassigned tag.
func Create(gw store.Gateway, tagType string, tagCode string, tagID string, signalStrength int) (*Tag, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Create-Tag.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Create-Tag.Success`, nil)
	mDuplicateErr := metrics.GetOrRegisterGauge(`Delivery.Create-Tag.Duplicate-Error`, nil)
	mInsertErr := metrics.GetOrRegisterGauge(`Delivery.Create-Tag.Insert-Error`, nil)
	mInsertLatency := metrics.GetOrRegisterTimer(`Delivery.Create-Tag.Insert-Latency`, nil)

	if !IsValidType(tagType) {
		return nil, errors.Wrapf(web.ErrInvalidInput, "unknown tag type %s", tagType)
	}

	newTag := Tag{
		ID:             uuid.New().String(),
		Type:           tagType,
		TagCode:        tagCode,
		TagID:          tagID,
		SignalStrength: signalStrength,
		Status:         statemodel.TagAvailable,
		UsageHistory:   []UsageRecord{},
	}

	insertTimer := time.Now()
	if err := gw.Insert(Collection, newTag); err != nil {
		if errors.Cause(err) == store.ErrDuplicate {
			mDuplicateErr.Update(1)
			return nil, errors.Wrapf(web.ErrDuplicate, "tag code %s or tag id %s already exists", tagCode, tagID)
		}
		mInsertErr.Update(1)
		return nil, errors.Wrap(err, "db.tags.insert()")
	}
	mInsertLatency.Update(time.Since(insertTimer))

	mSuccess.Update(1)
	return &newTag, nil
}

// FindByID retrieves one tag by its document id.
func FindByID(gw store.Gateway, tagID string) (*Tag, error) {
	var found Tag
	if err := gw.FindOne(Collection, bson.M{"id": tagID}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, errors.Wrapf(web.ErrNotFound, "tag %s", tagID)
		}
		return nil, errors.Wrap(err, "db.tags.findOne()")
	}
	return &found, nil
}

// Retrieve returns all tags matching selector; a nil selector matches all.
func Retrieve(gw store.Gateway, selector bson.M) ([]Tag, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Retrieve-Tag.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Tag.Success`, nil)
	mFindErr := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Tag.Find-Error`, nil)
	mFindLatency := metrics.GetOrRegisterTimer(`Delivery.Retrieve-Tag.Find-Latency`, nil)

	var tags []Tag

	retrieveTimer := time.Now()
	if err := gw.FindAll(Collection, selector, &tags); err != nil {
		mFindErr.Update(1)
		return nil, errors.Wrap(err, "db.tags.find()")
	}
	mFindLatency.Update(time.Since(retrieveTimer))

	mSuccess.Update(1)
	return tags, nil
}

// UpdateSignal records a newly reported signal strength.
func UpdateSignal(gw store.Gateway, tagID string, signalStrength int) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Update-Tag-Signal.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Update-Tag-Signal.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Update-Tag-Signal.NotFound-Error`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Update-Tag-Signal.Update-Error`, nil)

	err := gw.Update(Collection, bson.M{"id": tagID},
		bson.M{"$set": bson.M{"signal_strength": signalStrength}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			mErrNotFound.Update(1)
			return errors.Wrapf(web.ErrNotFound, "tag %s", tagID)
		}
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.tags.update()")
	}

	mSuccess.Update(1)
	return nil
}

// Assign binds the tag to a recipient and marks it active. Called from
// recipient creation; tags are never bound any other way.
func Assign(gw store.Gateway, tagID string, recipientID string) error {
	err := gw.Update(Collection, bson.M{"id": tagID}, bson.M{"$set": bson.M{
		"assigned_to": recipientID,
		"status":      statemodel.TagActive,
	}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return errors.Wrapf(web.ErrNotFound, "tag %s", tagID)
		}
		return errors.Wrap(err, "db.tags.update()")
	}
	return nil
}

// Release unbinds the tag from its recipient and returns it to the
// available pool. Called when a recipient checks out.
func Release(gw store.Gateway, tagID string) error {
	err := gw.Update(Collection, bson.M{"id": tagID}, bson.M{
		"$set":   bson.M{"status": statemodel.TagAvailable},
		"$unset": bson.M{"assigned_to": 1},
	})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return errors.Wrapf(web.ErrNotFound, "tag %s", tagID)
		}
		return errors.Wrap(err, "db.tags.update()")
	}
	return nil
}

// RecordUsage appends one confirmation to the tag's usage history.
func RecordUsage(gw store.Gateway, tagID string, taskID string, signalStrength int) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Record-Tag-Usage.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Record-Tag-Usage.Success`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Record-Tag-Usage.Update-Error`, nil)

	record := UsageRecord{
		Task:           taskID,
		Timestamp:      time.Now().UnixNano() / int64(time.Millisecond),
		SignalStrength: signalStrength,
	}

	err := gw.Update(Collection, bson.M{"id": tagID},
		bson.M{"$push": bson.M{"usage_history": record}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return errors.Wrapf(web.ErrNotFound, "tag %s", tagID)
		}
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.tags.update()")
	}

	mSuccess.Update(1)
	return nil
}
