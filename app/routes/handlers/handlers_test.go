/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/app/recipient"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/app/task"
	"github.com/medifleet/delivery-service/pkg/statemodel"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/store/memory"
	"github.com/medifleet/delivery-service/pkg/web"
)

func TestMain(m *testing.M) {
	if err := config.InitConfig(); err != nil {
		panic(err)
	}
	m.Run()
}

func testContext(request *http.Request) context.Context {
	return context.WithValue(context.Background(), web.KeyValues, &web.ContextValues{
		TraceID:    uuid.New().String(),
		Method:     request.Method,
		RequestURI: request.RequestURI,
		Now:        time.Now(),
	})
}

func newDB(t *testing.T) *memory.DB {
	db := memory.NewDB()
	err := db.EnsureIndexes(map[string][]store.Index{
		robot.Collection:          {{Field: "serial_number", Unique: true}},
		location.Collection:       {{Field: "name", Unique: true}},
		identification.Collection: {{Field: "tag_code", Unique: true}, {Field: "tag_id", Unique: true}},
		recipient.Collection:      {{Field: "patient_id", Unique: true}},
		task.Collection:           {{Field: "task_id", Unique: true}},
	})
	require.NoError(t, err)
	return db
}

func call(t *testing.T, handler web.Handler, method string, target string, body []byte, vars map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, bytes.NewReader(body))
	if vars != nil {
		request = mux.SetURLVars(request, vars)
	}
	recorder := httptest.NewRecorder()
	if err := handler(testContext(request), recorder, request); err != nil {
		web.Error(testContext(request), recorder, err)
	}
	return recorder
}

func TestCreateRobotHandler(t *testing.T) {
	deli := Delivery{MasterDB: newDB(t)}

	recorder := call(t, deli.CreateRobot, "POST", "/delivery/robots",
		[]byte(`{"serial_number":"SN-001","name":"courier"}`), nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var response struct {
		Results robot.Robot `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "SN-001", response.Results.SerialNumber)
	assert.Equal(t, statemodel.RobotActive, response.Results.Status)

	// duplicate serial number
	recorder = call(t, deli.CreateRobot, "POST", "/delivery/robots",
		[]byte(`{"serial_number":"SN-001","name":"other"}`), nil)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCreateRobotHandlerSchemaViolation(t *testing.T) {
	deli := Delivery{MasterDB: newDB(t)}

	recorder := call(t, deli.CreateRobot, "POST", "/delivery/robots",
		[]byte(`{"name":"courier"}`), nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "serial_number")

	recorder = call(t, deli.CreateRobot, "POST", "/delivery/robots", nil, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetRobotHandlerNotFound(t *testing.T) {
	deli := Delivery{MasterDB: newDB(t)}

	recorder := call(t, deli.GetRobot, "GET", "/delivery/robots/missing", nil,
		map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetRobotsHandlerFilters(t *testing.T) {
	db := newDB(t)
	deli := Delivery{MasterDB: db}

	_, err := robot.Create(db, "SN-001", "courier one")
	require.NoError(t, err)
	second, err := robot.Create(db, "SN-002", "courier two")
	require.NoError(t, err)
	require.NoError(t, robot.Deactivate(db, second.ID))

	recorder := call(t, deli.GetRobots, "GET", "/delivery/robots?status=active", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Results []robot.Robot `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response.Results, 1)
	assert.Equal(t, "SN-001", response.Results[0].SerialNumber)
}

type taskFixture struct {
	deli      Delivery
	db        *memory.DB
	addressee *recipient.Recipient
}

func newTaskFixture(t *testing.T) taskFixture {
	db := newDB(t)

	courier, err := robot.Create(db, "SN-001", "courier")
	require.NoError(t, err)
	ward, err := location.Create(db, "Ward 3", location.Coordinates{X: 1, Y: 2}, courier.ID, location.TypeWard, "")
	require.NoError(t, err)
	rfidTag, err := identification.Create(db, identification.TypeRFID, "RF-100", "04:AA:BB", -40)
	require.NoError(t, err)
	bleBeacon, err := identification.Create(db, identification.TypeBLE, "BLE-200", "04:CC:DD", -60)
	require.NoError(t, err)
	addressee, err := recipient.Create(db, recipient.CreateRequest{
		Name:        "Pat One",
		LocationID:  ward.ID,
		RFIDTagID:   rfidTag.ID,
		BLEBeaconID: bleBeacon.ID,
	})
	require.NoError(t, err)

	return taskFixture{deli: Delivery{MasterDB: db}, db: db, addressee: addressee}
}

func TestTaskHandlersLifecycle(t *testing.T) {
	f := newTaskFixture(t)

	recorder := call(t, f.deli.CreateTask, "POST", "/delivery/tasks",
		[]byte(`{"recipient":"`+f.addressee.ID+`","message":"hello","item":"meds"}`), nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		Results task.Task `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	taskID := created.Results.ID
	assert.Regexp(t, `^T-\d{4}$`, created.Results.TaskID)

	recorder = call(t, f.deli.QueueTasks, "PUT", "/delivery/tasks/queue",
		[]byte(`{"ids":["`+taskID+`"]}`), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var queued struct {
		Results task.QueueResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &queued))
	assert.Equal(t, 1, queued.Results.Queued)

	recorder = call(t, f.deli.StartTask, "PUT", "/delivery/tasks/"+taskID+"/start", nil,
		map[string]string{"id": taskID})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = call(t, f.deli.FinishTask, "PUT", "/delivery/tasks/"+taskID+"/finish",
		[]byte(`{"completed":true,"signal_strength":-42}`),
		map[string]string{"id": taskID})
	require.Equal(t, http.StatusOK, recorder.Code)

	var finished struct {
		Results task.Task `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &finished))
	assert.Equal(t, statemodel.TaskCompleted, finished.Results.Status)
}

func TestDeleteTaskHandlerInvalidState(t *testing.T) {
	f := newTaskFixture(t)

	created, err := task.Create(f.db, f.addressee.ID, "hello", "meds")
	require.NoError(t, err)
	_, err = task.Queue(f.db, []string{created.ID})
	require.NoError(t, err)

	recorder := call(t, f.deli.DeleteTask, "DELETE", "/delivery/tasks/"+created.ID, nil,
		map[string]string{"id": created.ID})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateTaskHandlerUnavailableRecipient(t *testing.T) {
	f := newTaskFixture(t)
	require.NoError(t, recipient.CheckOut(f.db, f.addressee.ID))

	recorder := call(t, f.deli.CreateTask, "POST", "/delivery/tasks",
		[]byte(`{"recipient":"`+f.addressee.ID+`"}`), nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetRecipientHandlerComposedView(t *testing.T) {
	f := newTaskFixture(t)

	recorder := call(t, f.deli.GetRecipient, "GET", "/delivery/recipients/"+f.addressee.ID, nil,
		map[string]string{"id": f.addressee.ID})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Results struct {
			PatientID string `json:"patient_id"`
			Location  struct {
				Name string `json:"name"`
			} `json:"location"`
			RFIDTag struct {
				TagCode string `json:"tag_code"`
			} `json:"rfid_tag"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, f.addressee.PatientID, response.Results.PatientID)
	assert.Equal(t, "Ward 3", response.Results.Location.Name)
	assert.Equal(t, "RF-100", response.Results.RFIDTag.TagCode)
}