/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/app/identification"
	"github.com/medifleet/delivery-service/app/location"
	"github.com/medifleet/delivery-service/app/recipient"
	"github.com/medifleet/delivery-service/app/robot"
	"github.com/medifleet/delivery-service/app/routes"
	"github.com/medifleet/delivery-service/app/task"
	"github.com/medifleet/delivery-service/pkg/healthcheck"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/store/mongo"
)

func main() {

	mConfigurationError := metrics.GetOrRegisterGauge("Delivery.Main.ConfigurationError", nil)
	mDatabaseRegisterError := metrics.GetOrRegisterGauge("Delivery.Main.DatabaseRegisterError", nil)
	mDBIndexesError := metrics.GetOrRegisterGauge("Delivery.Main.DBIndexesError", nil)

	// Ensure simple text format
	log.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	// Load config variables
	err := config.InitConfig()
	fatalErrorHandler("unable to load configuration variables", err, &mConfigurationError)

	setLoggingLevel(config.AppConfig.LoggingLevel)

	// Docker healthcheck probe
	if len(os.Args) > 1 && os.Args[1] == "-isHealthy" {
		os.Exit(healthcheck.Healthcheck(config.AppConfig.Port))
	}

	// Initialize metrics reporting
	initMetrics()

	log.WithFields(log.Fields{
		"Method": "main",
		"Action": "Start",
	}).Info("Starting delivery service...")

	dbHost := config.AppConfig.ConnectionString + "/" + config.AppConfig.DatabaseName

	log.WithFields(log.Fields{
		"Method": "main",
		"Action": "Start",
		"Host":   config.AppConfig.DatabaseName,
	}).Info("Registering a new master db...")

	masterDB, err := mongo.NewSession(dbHost, config.DbTimeout())
	fatalErrorHandler("Unable to register a new master db.", err, &mDatabaseRegisterError)

	// Close master db
	defer masterDB.Close()

	// Prepares database indexes
	prepDBErr := prepareDB(masterDB)
	errorHandler("error creating indexes", prepDBErr, &mDBIndexesError)

	// Initiate webserver and routes
	startWebServer(masterDB, config.AppConfig.Port, config.AppConfig.ServiceName)

	log.WithField("Method", "main").Info("Completed.")
}

// prepareDB ensures the unique-field indexes the generated codes and
// registration ids rely on. Insert-time rejection on these indexes is the
// authoritative duplicate signal.
func prepareDB(masterDB *mongo.DB) error {

	copySession := masterDB.CopySession()
	defer copySession.Close()

	indexes := map[string][]store.Index{
		robot.Collection: {
			{Field: "id", Unique: true},
			{Field: "serial_number", Unique: true},
		},
		location.Collection: {
			{Field: "id", Unique: true},
			{Field: "name", Unique: true},
			{Field: "robot", Unique: false},
		},
		identification.Collection: {
			{Field: "id", Unique: true},
			{Field: "tag_code", Unique: true},
			{Field: "tag_id", Unique: true},
		},
		recipient.Collection: {
			{Field: "id", Unique: true},
			{Field: "patient_id", Unique: true},
		},
		task.Collection: {
			{Field: "id", Unique: true},
			{Field: "task_id", Unique: true},
			{Field: "status", Unique: false},
			{Field: "robot", Unique: false},
		},
	}

	return copySession.EnsureIndexes(indexes)
}

func startWebServer(masterDB store.Master, port string, serviceName string) {

	// Start Webserver and pass additional data
	router := routes.NewRouter(masterDB)

	// Create a new server and set timeout values.
	server := http.Server{
		Addr:           ":" + port,
		Handler:        router,
		ReadTimeout:    900 * time.Second,
		WriteTimeout:   900 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// We want to report the listener is closed.
	var wg sync.WaitGroup
	wg.Add(1)

	// Start the listener.
	go func() {
		log.Infof("%s running!", serviceName)
		log.Infof("Listener closed : %v", server.ListenAndServe())
		wg.Done()
	}()

	// Listen for an interrupt signal from the OS.
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt)

	// Wait for a signal to shutdown.
	<-osSignals

	// Create a context to attempt a graceful 5 second shutdown.
	const timeout = 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Attempt the graceful shutdown by closing the listener and
	// completing all inflight requests.
	if err := server.Shutdown(ctx); err != nil {

		log.WithFields(log.Fields{
			"Method":  "main",
			"Action":  "shutdown",
			"Timeout": timeout,
			"Message": err.Error(),
		}).Error("Graceful shutdown did not complete")

		// Looks like we timedout on the graceful shutdown. Kill it hard.
		if err := server.Close(); err != nil {
			log.WithFields(log.Fields{
				"Method":  "main",
				"Action":  "shutdown",
				"Message": err.Error(),
			}).Error("Error killing server")
		}
	}

	// Wait for the listener to report it is closed.
	wg.Wait()
}
