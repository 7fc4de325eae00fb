/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package task owns the delivery task state machine:
//
//	todo -> queued -> active -> completed | missed
//	queued -> todo (dequeue)
//	todo -> deleted
//
// Every transition checks the current state first; creation additionally
// gates on the recipient and robot being operable.
package task

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/medifleet/delivery-service/app/codegen"
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/recipient"
	"github.com/medifleet/delivery-service/app/relationship"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/pkg/statemodel"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Collection is the tasks collection name.
const Collection = "tasks"

// Create issues a new delivery task in the todo state. The recipient must
// exist and be active, and the recipient's robot must exist and be active.
// The task id is generated and the insert retried on unique-index collision.
// After the insert the task is attached to the robot's deliveries list and
// the recipient's delivery history; an attach failure deletes the task again.
func Create(gw store.Gateway, recipientID string, message string, item string) (*Task, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Create-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Create-Task.Success`, nil)
	mRecipientNotFoundErr := metrics.GetOrRegisterGauge(`Delivery.Create-Task.RecipientNotFound-Error`, nil)
	mUnavailableErr := metrics.GetOrRegisterGauge(`Delivery.Create-Task.Unavailable-Error`, nil)
	mGenerateErr := metrics.GetOrRegisterGauge(`Delivery.Create-Task.Generate-Error`, nil)
	mAttachErr := metrics.GetOrRegisterGauge(`Delivery.Create-Task.Attach-Error`, nil)
	mCreateLatency := metrics.GetOrRegisterTimer(`Delivery.Create-Task.Create-Latency`, nil)

	createTimer := time.Now()

	addressee, err := recipient.FindByID(gw, recipientID)
	if err != nil {
		if errors.Cause(err) == web.ErrNotFound {
			mRecipientNotFoundErr.Update(1)
		}
		return nil, err
	}
	if err := statemodel.RequireOperable("recipient", addressee.ID, addressee.Status, statemodel.RecipientActive); err != nil {
		mUnavailableErr.Update(1)
		return nil, err
	}

	carrier, err := robot.FindByID(gw, addressee.Robot)
	if err != nil {
		return nil, err
	}
	if err := statemodel.RequireOperable("robot", carrier.ID, carrier.Status, statemodel.RobotActive); err != nil {
		mUnavailableErr.Update(1)
		return nil, err
	}

	newTask := Task{
		ID:        uuid.New().String(),
		Recipient: addressee.ID,
		Robot:     carrier.ID,
		Location:  addressee.Location,
		Message:   message,
		Item:      item,
		Status:    statemodel.TaskTodo,
		Timeline:  Timeline{Created: time.Now()},
	}

	taskID, err := codegen.GenerateAndInsert(gw, codegen.Task, func(code string) interface{} {
		newTask.TaskID = code
		return newTask
	})
	if err != nil {
		mGenerateErr.Update(1)
		return nil, err
	}
	newTask.TaskID = taskID

	if err := relationship.Attach(gw, robot.Collection, bson.M{"id": carrier.ID}, "deliveries", newTask.ID); err != nil {
		mAttachErr.Update(1)
		// compensate the primary write before reporting the failure
		if removeErr := gw.Remove(Collection, bson.M{"id": newTask.ID}); removeErr != nil {
			return nil, errors.Wrapf(err, "compensating task remove also failed: %s", removeErr.Error())
		}
		return nil, err
	}

	// History on the recipient is informational; a failure here is logged,
	// not compensated.
	if err := relationship.Attach(gw, recipient.Collection, bson.M{"id": addressee.ID}, "delivery_history", newTask.ID); err != nil {
		log.WithFields(log.Fields{
			"Method":    "task.Create",
			"Recipient": addressee.ID,
			"Task":      newTask.ID,
			"Error":     err.Error(),
		}).Warning("Unable to append task to delivery history")
	}

	mCreateLatency.Update(time.Since(createTimer))
	mSuccess.Update(1)
	return &newTask, nil
}

// FindByID retrieves one task by its document id.
func FindByID(gw store.Gateway, taskID string) (*Task, error) {
	var found Task
	if err := gw.FindOne(Collection, bson.M{"id": taskID}, &found); err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			return nil, errors.Wrapf(web.ErrNotFound, "task %s", taskID)
		}
		return nil, errors.Wrap(err, "db.tasks.findOne()")
	}
	return &found, nil
}

// Retrieve returns all tasks matching selector; a nil selector matches all.
func Retrieve(gw store.Gateway, selector bson.M) ([]Task, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Retrieve-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Task.Success`, nil)
	mFindErr := metrics.GetOrRegisterGauge(`Delivery.Retrieve-Task.Find-Error`, nil)
	mFindLatency := metrics.GetOrRegisterTimer(`Delivery.Retrieve-Task.Find-Latency`, nil)

	var tasks []Task

	retrieveTimer := time.Now()
	if err := gw.FindAll(Collection, selector, &tasks); err != nil {
		mFindErr.Update(1)
		return nil, errors.Wrap(err, "db.tasks.find()")
	}
	mFindLatency.Update(time.Since(retrieveTimer))

	mSuccess.Update(1)
	return tasks, nil
}

// Queue moves every matched todo task to queued in one batch update and
// stamps the queued time. Ids that match no todo task are silently skipped;
// the caller gets the aggregate counts only.
func Queue(gw store.Gateway, ids []string) (*QueueResult, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Queue-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Queue-Task.Success`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Queue-Task.Update-Error`, nil)

	matched, err := gw.UpdateAll(Collection,
		bson.M{"id": bson.M{"$in": ids}, "status": statemodel.TaskTodo},
		bson.M{"$set": bson.M{
			"status":                  statemodel.TaskQueued,
			"delivery_timeline.queued": time.Now(),
		}})
	if err != nil {
		mUpdateErr.Update(1)
		return nil, errors.Wrap(err, "db.tasks.updateAll()")
	}

	mSuccess.Update(1)
	return &QueueResult{Requested: len(ids), Queued: matched}, nil
}

// Dequeue returns a task to todo and clears the queued stamp. Calling it on
// a task that is already todo succeeds and changes nothing.
func Dequeue(gw store.Gateway, taskID string) (*Task, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Dequeue-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Dequeue-Task.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Dequeue-Task.NotFound-Error`, nil)

	found, err := FindByID(gw, taskID)
	if err != nil {
		mErrNotFound.Update(1)
		return nil, err
	}

	if found.Status == statemodel.TaskTodo {
		mSuccess.Update(1)
		return found, nil
	}

	err = gw.Update(Collection, bson.M{"id": taskID}, bson.M{
		"$set":   bson.M{"status": statemodel.TaskTodo},
		"$unset": bson.M{"delivery_timeline.queued": 1},
	})
	if err != nil {
		return nil, errors.Wrap(err, "db.tasks.update()")
	}

	found.Status = statemodel.TaskTodo
	found.Timeline.Queued = time.Time{}
	mSuccess.Update(1)
	return found, nil
}

// Start moves a queued task to active and stamps the started time. Robots
// call this when they pick the task up.
func Start(gw store.Gateway, taskID string) (*Task, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Start-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Start-Task.Success`, nil)
	mInvalidStateErr := metrics.GetOrRegisterGauge(`Delivery.Start-Task.InvalidState-Error`, nil)

	found, err := FindByID(gw, taskID)
	if err != nil {
		return nil, err
	}
	if found.Status != statemodel.TaskQueued {
		mInvalidStateErr.Update(1)
		return nil, errors.Wrapf(web.ErrInvalidState, "task %s is %s, only queued tasks can start", taskID, found.Status)
	}

	started := time.Now()
	err = gw.Update(Collection, bson.M{"id": taskID}, bson.M{"$set": bson.M{
		"status":                   statemodel.TaskActive,
		"delivery_timeline.started": started,
	}})
	if err != nil {
		return nil, errors.Wrap(err, "db.tasks.update()")
	}

	found.Status = statemodel.TaskActive
	found.Timeline.Started = started
	mSuccess.Update(1)
	return found, nil
}

// Finish closes an active task as completed or missed and stamps the
// completion time. A completed handover is recorded on the recipient's tags'
// usage history; a missed one is not.
func Finish(gw store.Gateway, taskID string, completed bool, signalStrength int) (*Task, error) {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Finish-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Finish-Task.Success`, nil)
	mInvalidStateErr := metrics.GetOrRegisterGauge(`Delivery.Finish-Task.InvalidState-Error`, nil)

	found, err := FindByID(gw, taskID)
	if err != nil {
		return nil, err
	}
	if found.Status != statemodel.TaskActive {
		mInvalidStateErr.Update(1)
		return nil, errors.Wrapf(web.ErrInvalidState, "task %s is %s, only active tasks can finish", taskID, found.Status)
	}

	finalStatus := statemodel.TaskMissed
	if completed {
		finalStatus = statemodel.TaskCompleted
	}

	finishedAt := time.Now()
	err = gw.Update(Collection, bson.M{"id": taskID}, bson.M{"$set": bson.M{
		"status":                     finalStatus,
		"delivery_timeline.completed": finishedAt,
	}})
	if err != nil {
		return nil, errors.Wrap(err, "db.tasks.update()")
	}

	if completed {
		recordConfirmation(gw, found, signalStrength)
	}

	found.Status = finalStatus
	found.Timeline.Completed = finishedAt
	mSuccess.Update(1)
	return found, nil
}

// recordConfirmation appends the handover to the usage history of the
// recipient's tags. Best effort: a recipient checked out mid-flight or a
// re-registered tag is tolerated.
func recordConfirmation(gw store.Gateway, finished *Task, signalStrength int) {
	addressee, err := recipient.FindByID(gw, finished.Recipient)
	if err != nil {
		log.WithFields(log.Fields{
			"Method": "task.Finish",
			"Task":   finished.ID,
			"Error":  err.Error(),
		}).Warning("Unable to load recipient for tag usage recording")
		return
	}

	for _, tagID := range []string{addressee.RFIDTag, addressee.BLEBeacon} {
		if err := identification.RecordUsage(gw, tagID, finished.ID, signalStrength); err != nil {
			log.WithFields(log.Fields{
				"Method": "task.Finish",
				"Task":   finished.ID,
				"Tag":    tagID,
				"Error":  err.Error(),
			}).Warning("Unable to record tag usage")
		}
	}
}

// UpdateMessage replaces the task's message. Allowed in any state; the
// robot re-reads the message on arrival.
func UpdateMessage(gw store.Gateway, taskID string, message string) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Update-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Update-Task.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Update-Task.NotFound-Error`, nil)
	mUpdateErr := metrics.GetOrRegisterGauge(`Delivery.Update-Task.Update-Error`, nil)

	err := gw.Update(Collection, bson.M{"id": taskID}, bson.M{"$set": bson.M{"message": message}})
	if err != nil {
		if errors.Cause(err) == store.ErrNotFound {
			mErrNotFound.Update(1)
			return errors.Wrapf(web.ErrNotFound, "task %s", taskID)
		}
		mUpdateErr.Update(1)
		return errors.Wrap(err, "db.tasks.update()")
	}

	mSuccess.Update(1)
	return nil
}

// Delete removes a task. Only todo tasks may be deleted; anything further
// along is either being worked or part of the delivery record. The task is
// detached from its robot and recipient before the document is removed, so
// a failed detach leaves the task in place rather than a dangling
// back-reference.
func Delete(gw store.Gateway, taskID string) error {

	// Metrics
	metrics.GetOrRegisterGauge(`Delivery.Delete-Task.Attempt`, nil).Update(1)
	mSuccess := metrics.GetOrRegisterGauge(`Delivery.Delete-Task.Success`, nil)
	mErrNotFound := metrics.GetOrRegisterGauge(`Delivery.Delete-Task.NotFound-Error`, nil)
	mInvalidStateErr := metrics.GetOrRegisterGauge(`Delivery.Delete-Task.InvalidState-Error`, nil)
	mDetachErr := metrics.GetOrRegisterGauge(`Delivery.Delete-Task.Detach-Error`, nil)
	mDeleteErr := metrics.GetOrRegisterGauge(`Delivery.Delete-Task.Delete-Error`, nil)

	found, err := FindByID(gw, taskID)
	if err != nil {
		mErrNotFound.Update(1)
		return err
	}

	if found.Status != statemodel.TaskTodo {
		mInvalidStateErr.Update(1)
		return errors.Wrapf(web.ErrInvalidState, "task %s is %s, only todo tasks can be deleted", taskID, found.Status)
	}

	if err := relationship.Detach(gw, robot.Collection, bson.M{"id": found.Robot}, "deliveries", found.ID); err != nil {
		mDetachErr.Update(1)
		return err
	}

	if err := relationship.Detach(gw, recipient.Collection, bson.M{"id": found.Recipient}, "delivery_history", found.ID); err != nil {
		log.WithFields(log.Fields{
			"Method":    "task.Delete",
			"Recipient": found.Recipient,
			"Task":      found.ID,
			"Error":     err.Error(),
		}).Warning("Unable to remove task from delivery history")
	}

	if err := gw.Remove(Collection, bson.M{"id": taskID}); err != nil {
		mDeleteErr.Update(1)
		return errors.Wrap(err, "db.tasks.remove()")
	}

	mSuccess.Update(1)
	return nil
}
