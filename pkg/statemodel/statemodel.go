/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package statemodel holds the status vocabulary shared by the entity
// controllers and the availability gate applied before dependent mutations.
package statemodel

import (
	"github.com/pkg/errors"

	"github.com/medifleet/delivery-service/pkg/web"
)

// Robot operational statuses
const (
	RobotActive     = "active"
	RobotInactive   = "inactive"
	RobotOutOfOrder = "out_of_order"
)

// Robot modes
const (
	ModeStandby  = "standby"
	ModeDelivery = "delivery"
	ModeMapping  = "mapping"
	ModeManual   = "manual"
)

// Recipient statuses
const (
	RecipientActive     = "active"
	RecipientCheckedOut = "checked_out"
)

// Identification tag statuses
const (
	TagActive    = "active"
	TagAvailable = "available"
)

// Task lifecycle states
const (
	TaskTodo      = "todo"
	TaskQueued    = "queued"
	TaskActive    = "active"
	TaskCompleted = "completed"
	TaskMissed    = "missed"
)

// RequireOperable checks that an already-fetched entity's status is one of
// the allowed values. It performs no I/O; callers fetch the entity first.
// Returns web.ErrUnavailable naming the entity when the gate fails.
func RequireOperable(kind string, id string, status string, allowed ...string) error {
	for _, value := range allowed {
		if status == value {
			return nil
		}
	}
	return errors.Wrapf(web.ErrUnavailable, "%s %s has status %s", kind, id, status)
}
