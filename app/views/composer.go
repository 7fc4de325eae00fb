/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package views assembles read-side responses by joining across entities.
// Expansion is shallow and best effort: a dangling reference is omitted
// from the view, never an error.
package views

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/app/recipient"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/app/task"
	"github.com/medifleet/delivery-service/pkg/store"
)

// ComposeRobot expands a robot's locations and deliveries.
func ComposeRobot(gw store.Gateway, found *robot.Robot) (*RobotView, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Compose-Robot.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Compose-Robot.Success`, nil)
	mComposeLatency := metrics.GetOrRegisterTimer(`Delivery.Compose-Robot.Compose-Latency`, nil)

	composeTimer := time.Now()

	locations, err := locationSummaries(gw, found.Locations)
	if err != nil {
		return nil, err
	}
	deliveries, err := taskSummaries(gw, found.Deliveries)
	if err != nil {
		return nil, err
	}

	mComposeLatency.Update(time.Since(composeTimer))
	mSuccess.Update(1)
	return &RobotView{Robot: *found, Locations: locations, Deliveries: deliveries}, nil
}

// ComposeRecipient expands a recipient's location, tags and delivery history.
func ComposeRecipient(gw store.Gateway, found *recipient.Recipient) (*RecipientView, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Compose-Recipient.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Compose-Recipient.Success`, nil)

	view := RecipientView{Recipient: *found}

	where, err := locationSummary(gw, found.Location)
	if err != nil {
		return nil, err
	}
	view.Location = where

	for _, binding := range []struct {
		id     string
		target **TagSummary
	}{
		{found.RFIDTag, &view.RFIDTag},
		{found.BLEBeacon, &view.BLEBeacon},
	} {
		summary, err := tagSummary(gw, binding.id)
		if err != nil {
			return nil, err
		}
		*binding.target = summary
	}

	history, err := taskSummaries(gw, found.DeliveryHistory)
	if err != nil {
		return nil, err
	}
	view.DeliveryHistory = history

	mSuccess.Update(1)
	return &view, nil
}

// ComposeTask expands a task's recipient and location.
func ComposeTask(gw store.Gateway, found *task.Task) (*TaskView, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Compose-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Compose-Task.Success`, nil)

	view := TaskView{Task: *found}

	addressee, err := recipientSummary(gw, found.Recipient)
	if err != nil {
		return nil, err
	}
	view.Recipient = addressee

	where, err := locationSummary(gw, found.Location)
	if err != nil {
		return nil, err
	}
	view.Location = where

	mSuccess.Update(1)
	return &view, nil
}

// ComposeTag expands the recipient a tag is assigned to, if any.
func ComposeTag(gw store.Gateway, found *identification.Tag) (*TagView, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Compose-Tag.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Compose-Tag.Success`, nil)

	view := TagView{Tag: *found}

	if found.AssignedTo != "" {
		addressee, err := recipientSummary(gw, found.AssignedTo)
		if err != nil {
			return nil, err
		}
		view.AssignedTo = addressee
	}

	mSuccess.Update(1)
	return &view, nil
}

// locationSummaries loads the referenced locations in one query and keeps
// the owner's ordering. Ids without a document are dropped.
func locationSummaries(gw store.Gateway, ids []string) ([]LocationSummary, error) {
	if len(ids) == 0 {
		return []LocationSummary{}, nil
	}

	var found []location.Location
	if err := gw.FindAll(location.Collection, bson.M{"id": bson.M{"$in": ids}}, &found); err != nil {
		return nil, errors.Wrap(err, "db.locations.find()")
	}

	byID := make(map[string]location.Location, len(found))
	for _, one := range found {
		byID[one.ID] = one
	}

	summaries := make([]LocationSummary, 0, len(ids))
	for _, id := range ids {
		if one, ok := byID[id]; ok {
			summaries = append(summaries, summarizeLocation(one))
		}
	}
	return summaries, nil
}

func taskSummaries(gw store.Gateway, ids []string) ([]TaskSummary, error) {
	if len(ids) == 0 {
		return []TaskSummary{}, nil
	}

	var found []task.Task
	if err := gw.FindAll(task.Collection, bson.M{"id": bson.M{"$in": ids}}, &found); err != nil {
		return nil, errors.Wrap(err, "db.tasks.find()")
	}

	byID := make(map[string]task.Task, len(found))
	for _, one := range found {
		byID[one.ID] = one
	}

	summaries := make([]TaskSummary, 0, len(ids))
	for _, id := range ids {
		if one, ok := byID[id]; ok {
			summaries = append(summaries, summarizeTask(one))
		}
	}
	return summaries, nil
}

func locationSummary(gw store.Gateway, id string) (*LocationSummary, error) {
	var found location.Location
	if err := gw.FindOne(location.Collection, bson.M{"id": id}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "db.locations.findOne()")
	}
	summary := summarizeLocation(found)
	return &summary, nil
}

func recipientSummary(gw store.Gateway, id string) (*RecipientSummary, error) {
	var found recipient.Recipient
	if err := gw.FindOne(recipient.Collection, bson.M{"id": id}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "db.recipients.findOne()")
	}
	summary := summarizeRecipient(found)
	return &summary, nil
}

func tagSummary(gw store.Gateway, id string) (*TagSummary, error) {
	var found identification.Tag
	if err := gw.FindOne(identification.Collection, bson.M{"id": id}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "db.tags.findOne()")
	}
	summary := summarizeTag(found)
	return &summary, nil
}
