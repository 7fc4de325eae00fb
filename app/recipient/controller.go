/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package recipient

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/medifleet/delivery-service/app/codegen"
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/pkg/statemodel"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Collection is the recipients collection name.
const Collection = "recipients"

// Create registers a new recipient. The location and both tags must already
// exist; the owning robot is snapshotted from the location. The patient code
// is generated and the insert retried on unique-index collision, so two
// concurrent registrations can never share a P-#### code.
func Create(gw store.Gateway, request CreateRequest) (*Recipient, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Create-Recipient.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Create-Recipient.Success`, nil)
	mLocationNotFoundErr := metrics.GetOrRegisterGauge(`Delivery.Create-Recipient.LocationNotFound-Error`, nil)
	mTagNotFoundErr := metrics.GetOrRegisterGauge(`Delivery.Create-Recipient.TagNotFound-Error`, nil)
	mGenerateErr := metrics.GetOrRegisterGauge(`Delivery.Create-Recipient.Generate-Error`, nil)
	mInsertLatency := metrics.GetOrRegisterTimer(`Delivery.Create-Recipient.Insert-Latency`, nil)

	registeredAt, err := location.FindByID(gw, request.LocationID)
	if err != nil {
		if errors.Cause(err) == web.ErrNotFound {
			mLocationNotFoundErr.Update(1)
		}
		return nil, err
	}

	rfidTag, err := findTagOfType(gw, request.RFIDTagID, identification.TypeRFID)
	if err != nil {
		mTagNotFoundErr.Update(1)
		return nil, err
	}
	bleBeacon, err := findTagOfType(gw, request.BLEBeaconID, identification.TypeBLE)
	if err != nil {
		mTagNotFoundErr.Update(1)
		return nil, err
	}

	newRecipient := Recipient{
		ID:              uuid.New().String(),
		Name:            request.Name,
		Location:        registeredAt.ID,
		Robot:           registeredAt.Robot,
		RFIDTag:         rfidTag.ID,
		BLEBeacon:       bleBeacon.ID,
		Status:          statemodel.RecipientActive,
		Admitted:        time.Now(),
		MedicalNotes:    request.MedicalNotes,
		ContactNumber:   request.ContactNumber,
		DeliveryHistory: []string{},
	}

	insertTimer := time.Now()
	patientID, err := codegen.GenerateAndInsert(gw, codegen.Recipient, func(code string) interface{} {
		newRecipient.PatientID = code
		return newRecipient
	})
	if err != nil {
		mGenerateErr.Update(1)
		return nil, err
	}
	newRecipient.PatientID = patientID
	mInsertLatency.Update(time.Since(insertTimer))

	// Bind both tags to the new recipient. A failed binding leaves the tag
	// unbound but the recipient valid; log and continue rather than tear the
	// registration down.
	for _, tagID := range []string{rfidTag.ID, bleBeacon.ID} {
		if err := identification.Assign(gw, tagID, newRecipient.ID); err != nil {
			log.WithFields(log.Fields{
				"Method":    "recipient.Create",
				"Tag":       tagID,
				"Recipient": newRecipient.ID,
				"Error":     err.Error(),
			}).Warning("Unable to bind tag to recipient")
		}
	}

	mSuccess.Update(1)
	return &newRecipient, nil
}

func findTagOfType(gw store.Gateway, tagID string, tagType string) (*identification.Tag, error) {
	found, err := identification.FindByID(gw, tagID)
	if err != nil {
		return nil, err
	}
	if found.Type != tagType {
		return nil, errors.Wrapf(web.ErrInvalidInput, "tag %s is not a %s tag", tagID, tagType)
	}
	return found, nil
}

// FindByID retrieves one recipient by its document id.
func FindByID(gw store.Gateway, recipientID string) (*Recipient, error) {
	var found Recipient
	if err := gw.FindOne(Collection, bson.M{"id": recipientID}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, errors.Wrapf(web.ErrNotFound, "recipient %s", recipientID)
		}
		return nil, errors.Wrap(err, "db.recipients.findOne()")
	}
	return &found, nil
}

// Retrieve returns all recipients matching selector; a nil selector matches all.
func Retrieve(gw store.Gateway, selector bson.M) ([]Recipient, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Retrieve-Recipient.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Recipient.Success`, nil)
	mFindErr := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Recipient.Find-Error`, nil)
	mFindLatency := metrics.GetOrRegisterTimer(`Delivery.Retrieve-Recipient.Find-Latency`, nil)

	var recipients []Recipient

	retrieveTimer := time.Now()
	if err := gw.FindAll(Collection, selector, &recipients); err != nil {
		mFindErr.Update(1)
		return nil, errors.Wrap(err, "db.recipients.find()")
	}
	mFindLatency.Update(time.Since(retrieveTimer))

	mSuccess.Update(1)
	return recipients, nil
}

// CheckOut ends the recipient's stay: no new tasks can be created for a
// checked-out recipient, and both tags return to the available pool.
func CheckOut(gw store.Gateway, recipientID string) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.CheckOut-Recipient.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.CheckOut-Recipient.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.CheckOut-Recipient.NotFound-Error`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.CheckOut-Recipient.Update-Error`, nil)

	checkedOut, err := FindByID(gw, recipientID)
	if err != nil {
		if errors.Cause(err) == web.ErrNotFound {
			mErrNotFound.Update(1)
		}
		return err
	}

	err = gw.Update(Collection, bson.M{"id": recipientID},
		bson.M{"$set": bson.M{"status": statemodel.RecipientCheckedOut}})
	if err != nil {
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.recipients.update()")
	}

	for _, tagID := range []string{checkedOut.RFIDTag, checkedOut.BLEBeacon} {
		if err := identification.Release(gw, tagID); err != nil {
			log.WithFields(log.Fields{
				"Method":    "recipient.CheckOut",
				"Tag":       tagID,
				"Recipient": recipientID,
				"Error":     err.Error(),
			}).Warning("Unable to release tag")
		}
	}

	mSuccess.Update(1)
	return nil
}
