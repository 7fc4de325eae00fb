/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package routes

import (
	"github.com/gorilla/mux"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/app/routes/handlers"
	"github.com/medifleet/delivery-service/pkg/middlewares"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// Route struct holds attributes to declare routes
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc web.Handler
}

// NewRouter creates the routes for GET, POST, PUT and DELETE
func NewRouter(masterDB store.Master) *mux.Router {

	delivery := handlers.Delivery{MasterDB: masterDB}

	var routes = []Route{
		{
			"Index",
			"GET",
			"/",
			delivery.Index,
		},
		{
			"GetRobots",
			"GET",
			"/delivery/robots",
			delivery.GetRobots,
		},
		{
			"CreateRobot",
			"POST",
			"/delivery/robots",
			delivery.CreateRobot,
		},
		{
			"GetRobot",
			"GET",
			"/delivery/robots/{id}",
			delivery.GetRobot,
		},
		{
			"UpdateRobotSettings",
			"PUT",
			"/delivery/robots/{id}/settings",
			delivery.UpdateRobotSettings,
		},
		{
			"DeactivateRobot",
			"PUT",
			"/delivery/robots/{id}/deactivate",
			delivery.DeactivateRobot,
		},
		{
			"ResetRobot",
			"PUT",
			"/delivery/robots/{id}/reset",
			delivery.ResetRobot,
		},
		{
			"GetLocations",
			"GET",
			"/delivery/locations",
			delivery.GetLocations,
		},
		{
			"CreateLocation",
			"POST",
			"/delivery/locations",
			delivery.CreateLocation,
		},
		{
			"GetTags",
			"GET",
			"/delivery/tags",
			delivery.GetTags,
		},
		{
			"CreateTag",
			"POST",
			"/delivery/tags",
			delivery.CreateTag,
		},
		{
			"GetTag",
			"GET",
			"/delivery/tags/{id}",
			delivery.GetTag,
		},
		{
			"UpdateTagSignal",
			"PUT",
			"/delivery/tags/{id}/signal",
			delivery.UpdateTagSignal,
		},
		{
			"GetRecipients",
			"GET",
			"/delivery/recipients",
			delivery.GetRecipients,
		},
		{
			"CreateRecipient",
			"POST",
			"/delivery/recipients",
			delivery.CreateRecipient,
		},
		{
			"GetRecipient",
			"GET",
			"/delivery/recipients/{id}",
			delivery.GetRecipient,
		},
		{
			"CheckOutRecipient",
			"PUT",
			"/delivery/recipients/{id}/checkout",
			delivery.CheckOutRecipient,
		},
		{
			"GetTasks",
			"GET",
			"/delivery/tasks",
			delivery.GetTasks,
		},
		{
			"CreateTask",
			"POST",
			"/delivery/tasks",
			delivery.CreateTask,
		},
		{
			"QueueTasks",
			"PUT",
			"/delivery/tasks/queue",
			delivery.QueueTasks,
		},
		{
			"GetTask",
			"GET",
			"/delivery/tasks/{id}",
			delivery.GetTask,
		},
		{
			"UpdateTask",
			"PUT",
			"/delivery/tasks/{id}",
			delivery.UpdateTask,
		},
		{
			"DeleteTask",
			"DELETE",
			"/delivery/tasks/{id}",
			delivery.DeleteTask,
		},
		{
			"DequeueTask",
			"PUT",
			"/delivery/tasks/{id}/dequeue",
			delivery.DequeueTask,
		},
		{
			"StartTask",
			"PUT",
			"/delivery/tasks/{id}/start",
			delivery.StartTask,
		},
		{
			"FinishTask",
			"PUT",
			"/delivery/tasks/{id}/finish",
			delivery.FinishTask,
		},
	}

	router := mux.NewRouter().StrictSlash(true)
	for _, route := range routes {

		var handler = route.HandlerFunc
		handler = middlewares.Recover(handler)
		handler = middlewares.Logger(handler)
		handler = middlewares.Bodylimiter(handler)
		if config.AppConfig.EnableCORS {
			handler = middlewares.CORS(config.AppConfig.CORSOrigin, handler)
		}

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}

	return router
}
