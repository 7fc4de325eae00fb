/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package codegen produces the short human-readable codes that identify
// recipients (P-####) and tasks (T-####).
package codegen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"

	"github.com/medifleet/delivery-service/app/config"
	"github.com/medifleet/delivery-service/pkg/store"
	"github.com/medifleet/delivery-service/pkg/web"
)

// MaxTries is the default number of times to attempt to generate an unused
// code before giving up; configurable via codeGenerationRetries.
const MaxTries = 20

const codeDigits = 10000

// Kind describes what a generated code identifies.
type Kind struct {
	// Prefix is the single letter ahead of the digits.
	Prefix string
	// Collection and Field locate existing codes for the collision pre-check.
	Collection string
	Field      string
}

// Recipient and Task are the two code kinds in use.
var (
	Recipient = Kind{Prefix: "P", Collection: "recipients", Field: "patient_id"}
	Task      = Kind{Prefix: "T", Collection: "tasks", Field: "task_id"}
)

// Generate returns a code of the form <prefix>-#### that no stored document
// of the same kind currently uses. The existence check is advisory only: two
// in-flight requests can both pass it with the same code, so callers must
// treat a unique-index rejection at insert time as a collision and retry the
// generate+insert pair (see GenerateAndInsert).
func Generate(gw store.Gateway, kind Kind) (string, error) {
	tries := maxTries()
	for attempt := 0; attempt < tries; attempt++ {
		code, err := randomCode(kind.Prefix)
		if err != nil {
			return "", err
		}

		count, err := gw.Count(kind.Collection, bson.M{kind.Field: code})
		if err != nil {
			return "", errors.Wrap(err, "codegen existence check")
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.Wrapf(web.ErrGenerationExhausted, "no unused %s-#### code in %d attempts", kind.Prefix, tries)
}

// GenerateAndInsert picks a code, stamps it through assign and inserts the
// document, retrying with a fresh code when the store's unique index rejects
// the insert. The index rejection is the authoritative collision signal; the
// pre-check in Generate just keeps the loop short.
func GenerateAndInsert(gw store.Gateway, kind Kind, assign func(code string) interface{}) (string, error) {
	tries := maxTries()
	for attempt := 0; attempt < tries; attempt++ {
		code, err := Generate(gw, kind)
		if err != nil {
			return "", err
		}

		err = gw.Insert(kind.Collection, assign(code))
		if err == nil {
			return code, nil
		}
		if errors.Cause(err) != store.ErrDuplicate {
			return "", err
		}
		// Raced another request to the same code; pick again.
	}
	return "", errors.Wrapf(web.ErrGenerationExhausted, "no unused %s-#### code in %d attempts", kind.Prefix, tries)
}

func maxTries() int {
	if tries := config.AppConfig.CodeGenerationRetries; tries > 0 {
		return tries
	}
	return MaxTries
}

func randomCode(prefix string) (string, error) {
	serial, err := rand.Int(rand.Reader, big.NewInt(codeDigits))
	if err != nil {
		return "", errors.Wrap(err, "unable to generate random serial")
	}
	return fmt.Sprintf("%s-%04d", prefix, serial.Int64()), nil
}
