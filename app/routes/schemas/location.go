/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package schemas

// CreateLocationSchema gets the json schema to register a location
const CreateLocationSchema = `{
	"type": "object",
	"required": [
		"name",
		"robot",
		"type",
		"coordinates"
	],
	"properties": {
		"name": {
			"type": "string",
			"minLength": 1
		},
		"robot": {
			"type": "string",
			"minLength": 1
		},
		"type": {
			"type": "string",
			"enum": ["ward", "base", "room"]
		},
		"coordinates": {
			"type": "object",
			"required": ["x", "y"],
			"properties": {
				"x": {
					"type": "number"
				},
				"y": {
					"type": "number"
				}
			},
			"additionalProperties": false
		},
		"description": {
			"type": "string"
		}
	},
	"additionalProperties": false
}`
