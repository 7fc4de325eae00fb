/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type (
	variables struct {
		ServiceName, LoggingLevel, Port string
		ConnectionString, DatabaseName  string

		DbTimeoutSeconds int
		ResponseLimit    int

		// Bound on attach/detach retries before a PartialWrite is surfaced
		RelationshipRetries int
		// Bound on short-code generation attempts
		CodeGenerationRetries int

		TelemetryEnabled                 bool
		TelemetryReportingIntervalSecond int

		EnableCORS bool
		CORSOrigin string
	}
)

// AppConfig exports all config variables
var AppConfig variables

// InitConfig loads application variables
func InitConfig() error {
	AppConfig = variables{}

	// A missing .env file is not an error; variables may come from the
	// process environment directly.
	if err := godotenv.Load(); err != nil {
		log.WithFields(log.Fields{
			"Method": "config.InitConfig",
			"Action": "godotenv.Load",
		}).Debug("No .env file found, using process environment")
	}

	AppConfig.ServiceName = getString("serviceName", "delivery-service")
	AppConfig.LoggingLevel = getString("loggingLevel", "info")
	AppConfig.Port = getString("port", "8080")

	AppConfig.ConnectionString = getString("connectionString", "mongodb://localhost:27017")
	AppConfig.DatabaseName = getString("databaseName", "delivery")

	var err error
	if AppConfig.DbTimeoutSeconds, err = getInt("dbTimeoutSeconds", 5); err != nil {
		return errors.Wrap(err, "unable to load config variables")
	}
	if AppConfig.ResponseLimit, err = getInt("responseLimit", 10000); err != nil {
		return errors.Wrap(err, "unable to load config variables")
	}
	if AppConfig.RelationshipRetries, err = getInt("relationshipRetries", 3); err != nil {
		return errors.Wrap(err, "unable to load config variables")
	}
	if AppConfig.CodeGenerationRetries, err = getInt("codeGenerationRetries", 20); err != nil {
		return errors.Wrap(err, "unable to load config variables")
	}
	if AppConfig.TelemetryReportingIntervalSecond, err = getInt("telemetryReportingIntervalSeconds", 60); err != nil {
		return errors.Wrap(err, "unable to load config variables")
	}

	AppConfig.TelemetryEnabled = getBool("telemetryEnabled", false)
	AppConfig.EnableCORS = getBool("enableCORS", false)
	AppConfig.CORSOrigin = getString("corsOrigin", "*")

	return nil
}

// DbTimeout returns the per-call store timeout.
func DbTimeout() time.Duration {
	return time.Duration(AppConfig.DbTimeoutSeconds) * time.Second
}

func getString(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "variable %s is not an integer", key)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
