/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package schemas

// CreateTagSchema gets the json schema to register an identification tag
const CreateTagSchema = `{
	"type": "object",
	"required": [
		"type",
		"tag_code",
		"tag_id"
	],
	"properties": {
		"type": {
			"type": "string",
			"enum": ["rfid", "ble"]
		},
		"tag_code": {
			"type": "string",
			"pattern": "^[-a-zA-Z0-9_]{1,}$"
		},
		"tag_id": {
			"type": "string",
			"minLength": 1
		},
		"signal_strength": {
			"type": "integer"
		}
	},
	"additionalProperties": false
}`

// UpdateTagSignalSchema gets the json schema to update a tag's signal strength
const UpdateTagSignalSchema = `{
	"type": "object",
	"required": [
		"signal_strength"
	],
	"properties": {
		"signal_strength": {
			"type": "integer"
		}
	},
	"additionalProperties": false
}`
