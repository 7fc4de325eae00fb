/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package schemas

// CreateRobotSchema gets the json schema to register a robot
const CreateRobotSchema = `{
	"type": "object",
	"required": [
		"serial_number",
		"name"
	],
	"properties": {
		"serial_number": {
			"type": "string",
			"pattern": "^[-a-zA-Z0-9_]{1,}$"
		},
		"name": {
			"type": "string",
			"minLength": 1
		}
	},
	"additionalProperties": false
}`

// UpdateRobotSettingsSchema gets the json schema to update a robot's settings
const UpdateRobotSettingsSchema = `{
	"type": "object",
	"required": [
		"max_speed",
		"wait_time_seconds",
		"retry_count",
		"confirm_with_tag"
	],
	"properties": {
		"max_speed": {
			"type": "number",
			"minimum": 0
		},
		"wait_time_seconds": {
			"type": "integer",
			"minimum": 0
		},
		"retry_count": {
			"type": "integer",
			"minimum": 0
		},
		"confirm_with_tag": {
			"type": "boolean"
		},
		"default_message": {
			"type": "string"
		}
	},
	"additionalProperties": false
}`
