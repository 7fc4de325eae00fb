/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package handlers is the HTTP surface over the delivery core. Handlers are
// thin: decode and validate the body, call the core operation against a
// request-scoped store session, and let pkg/web map sentinel errors to
// status codes.
package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/app/recipient"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/app/routes/schemas"
	"github.com/medifleet/delivery-service/app/task"
	"github.com/medifleet/delivery-service/app/views"
	"github.com/medifleet/delivery-service/pkg/filter"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Delivery represents the delivery API method handler set.
type Delivery struct {
	MasterDB store.Master
}

// Index is used for Docker Healthcheck commands to indicate
// whether the http server is up and running to take requests
func (deli *Delivery) Index(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	web.Respond(ctx, writer, "Delivery Service", http.StatusOK)
	return nil
}

// GetRobots retrieves robots, optionally filtered by status, mode or name.
// 200 OK, 500 Internal Error
func (deli *Delivery) GetRobots(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	predicates := queryPredicates(request.URL.Query(),
		[]string{"status", "mode", "serial_number"}, []string{"name"})
	robots, err := robot.Retrieve(gw, filter.Selector(predicates...))
	if err != nil {
		return err
	}
	if robots == nil {
		robots = []robot.Robot{}
	}
	if len(robots) > config.AppConfig.ResponseLimit {
		robots = robots[:config.AppConfig.ResponseLimit]
	}

	web.Respond(ctx, writer, Response{Results: robots}, http.StatusOK)
	return nil
}

// GetRobot retrieves one robot with its locations and deliveries expanded.
// 200 OK, 404 Not Found, 500 Internal Error
func (deli *Delivery) GetRobot(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	found, err := robot.FindByID(gw, mux.Vars(request)["id"])
	if err != nil {
		return err
	}
	view, err := views.ComposeRobot(gw, found)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: view}, http.StatusOK)
	return nil
}

type createRobotRequest struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
}

// CreateRobot registers a robot.
// 201 Created, 400 Bad Request, 409 Conflict, 500 Internal Error
func (deli *Delivery) CreateRobot(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body createRobotRequest
	validationErrors, err := readAndValidate(request, schemas.CreateRobotSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	created, err := robot.Create(gw, body.SerialNumber, body.Name)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: created}, http.StatusCreated)
	return nil
}

// UpdateRobotSettings replaces a robot's settings record.
// 204 No Content, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) UpdateRobotSettings(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body robot.Settings
	validationErrors, err := readAndValidate(request, schemas.UpdateRobotSettingsSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	if err := robot.UpdateSettings(gw, mux.Vars(request)["id"], body); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}

// DeactivateRobot takes a robot out of order.
// 204 No Content, 404 Not Found, 500 Internal Error
func (deli *Delivery) DeactivateRobot(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	if err := robot.Deactivate(gw, mux.Vars(request)["id"]); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}

// ResetRobot reinitializes a robot's status, mode and settings and clears
// its location and delivery lists.
// 204 No Content, 404 Not Found, 500 Internal Error
func (deli *Delivery) ResetRobot(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	if err := robot.Reset(gw, mux.Vars(request)["id"]); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}

// GetLocations retrieves locations, optionally filtered by type, robot or name.
// 200 OK, 500 Internal Error
func (deli *Delivery) GetLocations(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	predicates := queryPredicates(request.URL.Query(),
		[]string{"type", "robot"}, []string{"name"})
	locations, err := location.Retrieve(gw, filter.Selector(predicates...))
	if err != nil {
		return err
	}
	if locations == nil {
		locations = []location.Location{}
	}
	if len(locations) > config.AppConfig.ResponseLimit {
		locations = locations[:config.AppConfig.ResponseLimit]
	}

	web.Respond(ctx, writer, Response{Results: locations}, http.StatusOK)
	return nil
}

type createLocationRequest struct {
	Name        string               `json:"name"`
	Robot       string               `json:"robot"`
	Type        string               `json:"type"`
	Coordinates location.Coordinates `json:"coordinates"`
	Description string               `json:"description"`
}

// CreateLocation registers a location and attaches it to its robot.
// 201 Created, 400 Bad Request, 404 Not Found, 409 Conflict, 500 Internal Error
func (deli *Delivery) CreateLocation(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body createLocationRequest
	validationErrors, err := readAndValidate(request, schemas.CreateLocationSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	created, err := location.Create(gw, body.Name, body.Coordinates, body.Robot, body.Type, body.Description)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: created}, http.StatusCreated)
	return nil
}

// GetTags retrieves identification tags, optionally filtered by type,
// status or tag code.
// 200 OK, 500 Internal Error
func (deli *Delivery) GetTags(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	predicates := queryPredicates(request.URL.Query(),
		[]string{"type", "status"}, []string{"tag_code"})
	tags, err := identification.Retrieve(gw, filter.Selector(predicates...))
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []identification.Tag{}
	}
	if len(tags) > config.AppConfig.ResponseLimit {
		tags = tags[:config.AppConfig.ResponseLimit]
	}

	web.Respond(ctx, writer, Response{Results: tags}, http.StatusOK)
	return nil
}

// GetTag retrieves one tag with its assigned recipient expanded.
// 200 OK, 404 Not Found, 500 Internal Error
func (deli *Delivery) GetTag(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	found, err := identification.FindByID(gw, mux.Vars(request)["id"])
	if err != nil {
		return err
	}
	view, err := views.ComposeTag(gw, found)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: view}, http.StatusOK)
	return nil
}

type createTagRequest struct {
	Type           string `json:"type"`
	TagCode        string `json:"tag_code"`
	TagID          string `json:"tag_id"`
	SignalStrength int    `json:"signal_strength"`
}

// CreateTag registers an identification tag.
// 201 Created, 400 Bad Request, 409 Conflict, 500 Internal Error
func (deli *Delivery) CreateTag(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body createTagRequest
	validationErrors, err := readAndValidate(request, schemas.CreateTagSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	created, err := identification.Create(gw, body.Type, body.TagCode, body.TagID, body.SignalStrength)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: created}, http.StatusCreated)
	return nil
}

type signalRequest struct {
	SignalStrength int `json:"signal_strength"`
}

// UpdateTagSignal records a tag's last reported signal strength.
// 204 No Content, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) UpdateTagSignal(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body signalRequest
	validationErrors, err := readAndValidate(request, schemas.UpdateTagSignalSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	if err := identification.UpdateSignal(gw, mux.Vars(request)["id"], body.SignalStrength); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}

// GetRecipients retrieves recipients, optionally filtered by status, robot,
// location, patient id or name.
// 200 OK, 500 Internal Error
func (deli *Delivery) GetRecipients(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	predicates := queryPredicates(request.URL.Query(),
		[]string{"status", "robot", "location", "patient_id"}, []string{"name"})
	recipients, err := recipient.Retrieve(gw, filter.Selector(predicates...))
	if err != nil {
		return err
	}
	if recipients == nil {
		recipients = []recipient.Recipient{}
	}
	if len(recipients) > config.AppConfig.ResponseLimit {
		recipients = recipients[:config.AppConfig.ResponseLimit]
	}

	web.Respond(ctx, writer, Response{Results: recipients}, http.StatusOK)
	return nil
}

// GetRecipient retrieves one recipient with location, tags and delivery
// history expanded.
// 200 OK, 404 Not Found, 500 Internal Error
func (deli *Delivery) GetRecipient(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	found, err := recipient.FindByID(gw, mux.Vars(request)["id"])
	if err != nil {
		return err
	}
	view, err := views.ComposeRecipient(gw, found)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: view}, http.StatusOK)
	return nil
}

// CreateRecipient registers a recipient and binds both identification tags.
// 201 Created, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) CreateRecipient(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body recipient.CreateRequest
	validationErrors, err := readAndValidate(request, schemas.CreateRecipientSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	created, err := recipient.Create(gw, body)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: created}, http.StatusCreated)
	return nil
}

// CheckOutRecipient ends a recipient's delivery eligibility and releases
// their tags.
// 204 No Content, 404 Not Found, 500 Internal Error
func (deli *Delivery) CheckOutRecipient(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	if err := recipient.CheckOut(gw, mux.Vars(request)["id"]); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}

// GetTasks retrieves tasks, optionally filtered by status, robot, recipient
// or task id.
// 200 OK, 500 Internal Error
func (deli *Delivery) GetTasks(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	predicates := queryPredicates(request.URL.Query(),
		[]string{"status", "robot", "recipient", "task_id"}, nil)
	tasks, err := task.Retrieve(gw, filter.Selector(predicates...))
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	if len(tasks) > config.AppConfig.ResponseLimit {
		tasks = tasks[:config.AppConfig.ResponseLimit]
	}

	web.Respond(ctx, writer, Response{Results: tasks}, http.StatusOK)
	return nil
}

// GetTask retrieves one task with its recipient and location expanded.
// 200 OK, 404 Not Found, 500 Internal Error
func (deli *Delivery) GetTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	found, err := task.FindByID(gw, mux.Vars(request)["id"])
	if err != nil {
		return err
	}
	view, err := views.ComposeTask(gw, found)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: view}, http.StatusOK)
	return nil
}

type createTaskRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Item      string `json:"item"`
}

// CreateTask creates a delivery task for a recipient.
// 201 Created, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) CreateTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body createTaskRequest
	validationErrors, err := readAndValidate(request, schemas.CreateTaskSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	created, err := task.Create(gw, body.Recipient, body.Message, body.Item)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: created}, http.StatusCreated)
	return nil
}

type queueRequest struct {
	IDs []string `json:"ids"`
}

// QueueTasks moves a batch of todo tasks to queued, reporting aggregate
// counts only.
// 200 OK, 400 Bad Request, 500 Internal Error
func (deli *Delivery) QueueTasks(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body queueRequest
	validationErrors, err := readAndValidate(request, schemas.QueueTasksSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	result, err := task.Queue(gw, body.IDs)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: result}, http.StatusOK)
	return nil
}

// DequeueTask returns a task to todo.
// 200 OK, 404 Not Found, 500 Internal Error
func (deli *Delivery) DequeueTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	dequeued, err := task.Dequeue(gw, mux.Vars(request)["id"])
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: dequeued}, http.StatusOK)
	return nil
}

// StartTask moves a queued task to active.
// 200 OK, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) StartTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	started, err := task.Start(gw, mux.Vars(request)["id"])
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: started}, http.StatusOK)
	return nil
}

type finishRequest struct {
	Completed      bool `json:"completed"`
	SignalStrength int  `json:"signal_strength"`
}

// FinishTask closes an active task as completed or missed.
// 200 OK, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) FinishTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body finishRequest
	validationErrors, err := readAndValidate(request, schemas.FinishTaskSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	finished, err := task.Finish(gw, mux.Vars(request)["id"], body.Completed, body.SignalStrength)
	if err != nil {
		return err
	}

	web.Respond(ctx, writer, Response{Results: finished}, http.StatusOK)
	return nil
}

type messageRequest struct {
	Message string `json:"message"`
}

// UpdateTask replaces a task's message.
// 204 No Content, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) UpdateTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	var body messageRequest
	validationErrors, err := readAndValidate(request, schemas.UpdateTaskSchema, &body)
	if err != nil {
		return err
	}
	if validationErrors != nil {
		web.Respond(ctx, writer, validationErrors, http.StatusBadRequest)
		return nil
	}

	gw, release := deli.MasterDB.Session()
	defer release()

	if err := task.UpdateMessage(gw, mux.Vars(request)["id"], body.Message); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}

// DeleteTask removes a todo task and detaches it from its robot.
// 204 No Content, 400 Bad Request, 404 Not Found, 500 Internal Error
func (deli *Delivery) DeleteTask(ctx context.Context, writer http.ResponseWriter, request *http.Request) error {
	gw, release := deli.MasterDB.Session()
	defer release()

	if err := task.Delete(gw, mux.Vars(request)["id"]); err != nil {
		return err
	}

	web.Respond(ctx, writer, nil, http.StatusNoContent)
	return nil
}
