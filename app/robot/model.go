/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package robot

import "time"

// Robot is the model for one fleet delivery unit.
type Robot struct {
	// Generated document id
	ID string `json:"id" bson:"id"`
	// Manufacturer serial number, unique across the fleet
	SerialNumber string `json:"serial_number" bson:"serial_number"`
	// Operator-facing name
	Name string `json:"name" bson:"name"`
	// Operational status: active, inactive or out_of_order
	Status string `json:"status" bson:"status"`
	// Current mode: standby, delivery, mapping or manual
	Mode string `json:"mode" bson:"mode"`
	// Ordered ids of the locations this robot owns
	Locations []string `json:"locations" bson:"locations"`
	// Ordered ids of the tasks attached to this robot
	Deliveries []string `json:"deliveries" bson:"deliveries"`
	// Per-robot delivery settings
	Settings Settings `json:"settings" bson:"settings"`
	// Registration time
	Registered time.Time `json:"registered" bson:"registered"`
}

// Settings is the per-robot delivery settings record.
type Settings struct {
	// Maximum travel speed in m/s
	MaxSpeed float64 `json:"max_speed" bson:"max_speed"`
	// Seconds to wait at a delivery point before giving up
	WaitTimeSeconds int `json:"wait_time_seconds" bson:"wait_time_seconds"`
	// Delivery attempts before a task is marked missed
	RetryCount int `json:"retry_count" bson:"retry_count"`
	// Whether the recipient's tag must confirm the handover
	ConfirmWithTag bool `json:"confirm_with_tag" bson:"confirm_with_tag"`
	// Message announced on arrival when the task has none
	DefaultMessage string `json:"default_message" bson:"default_message"`
}

// DefaultSettings are applied on registration and on reset.
func DefaultSettings() Settings {
	return Settings{
		MaxSpeed:        1.0,
		WaitTimeSeconds: 60,
		RetryCount:      3,
		ConfirmWithTag:  true,
		DefaultMessage:  "Your delivery has arrived",
	}
}
