/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package task

import "time"

// Task is the model for one delivery instance.
//
// The robot and location fields are snapshots taken from the recipient at
// creation time; a recipient moved after creation does not retarget tasks
// already issued.
type Task struct {
	// Generated document id
	ID string `json:"id" bson:"id"`
	// Generated T-#### code, unique across tasks
	TaskID string `json:"task_id" bson:"task_id"`
	// Recipient the delivery is for
	Recipient string `json:"recipient" bson:"recipient"`
	// Robot carrying the delivery, snapshotted from the recipient
	Robot string `json:"robot" bson:"robot"`
	// Destination location, snapshotted from the recipient
	Location string `json:"location" bson:"location"`
	// Message announced on arrival
	Message string `json:"message" bson:"message"`
	// What is being delivered
	Item string `json:"item" bson:"item"`
	// todo, queued, active, completed or missed
	Status string `json:"status" bson:"status"`
	// Lifecycle timestamps
	Timeline Timeline `json:"delivery_timeline" bson:"delivery_timeline"`
}

// Timeline records when a task passed each lifecycle point. Zero values mean
// the task has not reached that point (or left it again, for queued).
type Timeline struct {
	Created   time.Time `json:"created" bson:"created"`
	Queued    time.Time `json:"queued,omitempty" bson:"queued,omitempty"`
	Started   time.Time `json:"started,omitempty" bson:"started,omitempty"`
	Completed time.Time `json:"completed,omitempty" bson:"completed,omitempty"`
}

// QueueResult is the aggregate response of a batch queue call. Ids that
// matched no todo task are skipped, not reported individually.
type QueueResult struct {
	Requested int `json:"requested"`
	Queued    int `json:"queued"`
}
