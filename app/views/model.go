/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package views

import (
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/app/recipient"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/app/task"
)

// The view types embed the entity model and shadow its reference fields
// with expanded summaries under the same json name. A reference whose
// document no longer exists shows up as nil/absent rather than failing
// the read.

// RobotView is a robot with its locations and deliveries expanded.
type RobotView struct {
	robot.Robot
	Locations  []LocationSummary `json:"locations"`
	Deliveries []TaskSummary     `json:"deliveries"`
}

// RecipientView is a recipient with its location, tags and delivery
// history expanded.
type RecipientView struct {
	recipient.Recipient
	Location        *LocationSummary `json:"location,omitempty"`
	RFIDTag         *TagSummary      `json:"rfid_tag,omitempty"`
	BLEBeacon       *TagSummary      `json:"ble_beacon,omitempty"`
	DeliveryHistory []TaskSummary    `json:"delivery_history"`
}

// TaskView is a task with its recipient and location expanded.
type TaskView struct {
	task.Task
	Recipient *RecipientSummary `json:"recipient,omitempty"`
	Location  *LocationSummary  `json:"location,omitempty"`
}

// TagView is a tag with its assigned recipient expanded. The usage history
// is already carried on the tag document itself.
type TagView struct {
	identification.Tag
	AssignedTo *RecipientSummary `json:"assigned_to,omitempty"`
}

// LocationSummary is the reduced location projection used in expansions.
type LocationSummary struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Type        string               `json:"type"`
	Coordinates location.Coordinates `json:"coordinates"`
}

// TaskSummary is the reduced task projection used in expansions.
type TaskSummary struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Item   string `json:"item"`
}

// RecipientSummary is the reduced recipient projection used in expansions.
type RecipientSummary struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

// TagSummary is the reduced tag projection used in expansions.
type TagSummary struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	TagCode        string `json:"tag_code"`
	Status         string `json:"status"`
	SignalStrength int    `json:"signal_strength"`
}

func summarizeLocation(found location.Location) LocationSummary {
	return LocationSummary{
		ID:          found.ID,
		Name:        found.Name,
		Type:        found.Type,
		Coordinates: found.Coordinates,
	}
}

func summarizeTask(found task.Task) TaskSummary {
	return TaskSummary{
		ID:     found.ID,
		TaskID: found.TaskID,
		Status: found.Status,
		Item:   found.Item,
	}
}

func summarizeRecipient(found recipient.Recipient) RecipientSummary {
	return RecipientSummary{
		ID:        found.ID,
		PatientID: found.PatientID,
		Name:      found.Name,
		Status:    found.Status,
	}
}

func summarizeTag(found identification.Tag) TagSummary {
	return TagSummary{
		ID:             found.ID,
		Type:           found.Type,
		TagCode:        found.TagCode,
		Status:         found.Status,
		SignalStrength: found.SignalStrength,
	}
}
