/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package schemas

// CreateRecipientSchema gets the json schema to register a recipient
const CreateRecipientSchema = `{
	"type": "object",
	"required": [
		"name",
		"location",
		"rfid_tag",
		"ble_beacon"
	],
	"properties": {
		"name": {
			"type": "string",
			"minLength": 1
		},
		"location": {
			"type": "string",
			"minLength": 1
		},
		"rfid_tag": {
			"type": "string",
			"minLength": 1
		},
		"ble_beacon": {
			"type": "string",
			"minLength": 1
		},
		"medical_notes": {
			"type": "string"
		},
		"contact_number": {
			"type": "string",
			"pattern": "^[-+0-9 ]{0,20}$"
		}
	},
	"additionalProperties": false
}`
