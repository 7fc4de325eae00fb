/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package statemodel

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/medifleet/delivery-service/pkg/web"
)

func TestRequireOperablePasses(t *testing.T) {
	if err := RequireOperable("robot", "r1", RobotActive, RobotActive); err != nil {
		t.Errorf("expected active robot to pass the gate: %s", err)
	}
}

func TestRequireOperableMultipleAllowed(t *testing.T) {
	err := RequireOperable("robot", "r1", RobotInactive, RobotActive, RobotInactive)
	assert.NoError(t, err)
}

func TestRequireOperableFails(t *testing.T) {
	err := RequireOperable("robot", "r1", RobotOutOfOrder, RobotActive)
	if errors.Cause(err) != web.ErrUnavailable {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	assert.Contains(t, err.Error(), "r1")
	assert.Contains(t, err.Error(), RobotOutOfOrder)
}
