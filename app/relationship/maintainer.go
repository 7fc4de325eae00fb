/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package relationship keeps the denormalized back-reference arrays between
// entities consistent: robot.locations and robot.deliveries, and
// recipient.delivery_history. The store offers no multi-document
// transactions, so each back-reference change is a single atomic array
// operation on the owner document, retried a bounded number of times. A
// change that still fails after the retries is reported as a partial write
// for the caller to compensate; it is never dropped silently.
package relationship

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

const retryBackoff = 50 * time.Millisecond

// Attach appends value to the array field of the owner document matched by
// selector, as one atomic $push.
func Attach(gw store.Gateway, collection string, selector bson.M, field string, value interface{}) error {
	return apply(gw, collection, selector, bson.M{"$push": bson.M{field: value}}, "Attach")
}

// Detach removes value from the array field of the owner document matched by
// selector, as one atomic $pull.
func Detach(gw store.Gateway, collection string, selector bson.M, field string, value interface{}) error {
	return apply(gw, collection, selector, bson.M{"$pull": bson.M{field: value}}, "Detach")
}

func apply(gw store.Gateway, collection string, selector bson.M, update bson.M, action string) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Relationship-`+action+`.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Relationship-`+action+`.Success`, nil)
	mRetry := metrics.GetOrRegisterGauge(`Delivery.Relationship-`+action+`.Retry`, nil)
	mPartialWriteErr := metrics.GetOrRegisterGauge(`Delivery.Relationship-`+action+`.PartialWrite-Error`, nil)

	retries := config.AppConfig.RelationshipRetries
	if retries < 1 {
		retries = 1
	}

	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		err = gw.Update(collection, selector, update)
		if err == nil {
			mSuccess.Update(1)
			return nil
		}

		// A missing owner will not appear on retry; report it right away.
		if errors.Cause(err) == store.ErrNotFound {
			break
		}

		if attempt < retries {
			mRetry.Update(1)
			log.WithFields(log.Fields{
				"Method":     "relationship." + action,
				"Collection": collection,
				"Attempt":    attempt,
				"Error":      err.Error(),
			}).Warning("Back-reference update failed, retrying")
			time.Sleep(retryBackoff)
		}
	}

	mPartialWriteErr.Update(1)
	log.WithFields(log.Fields{
		"Method":     "relationship." + action,
		"Collection": collection,
		"Error":      err.Error(),
	}).Error("Back-reference update failed after retries")

	return errors.Wrapf(web.ErrPartialWrite, "db.%s back-reference %s: %s", collection, action, err.Error())
}
