/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package schemas

// CreateTaskSchema gets the json schema to create a delivery task
const CreateTaskSchema = `{
	"type": "object",
	"required": [
		"recipient"
	],
	"properties": {
		"recipient": {
			"type": "string",
			"minLength": 1
		},
		"message": {
			"type": "string"
		},
		"item": {
			"type": "string"
		}
	},
	"additionalProperties": false
}`

// QueueTasksSchema gets the json schema for the batch queue request
const QueueTasksSchema = `{
	"type": "object",
	"required": [
		"ids"
	],
	"properties": {
		"ids": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "string",
				"minLength": 1
			}
		}
	},
	"additionalProperties": false
}`

// UpdateTaskSchema gets the json schema to update a task's message
const UpdateTaskSchema = `{
	"type": "object",
	"required": [
		"message"
	],
	"properties": {
		"message": {
			"type": "string"
		}
	},
	"additionalProperties": false
}`

// FinishTaskSchema gets the json schema for the delivery outcome report
const FinishTaskSchema = `{
	"type": "object",
	"required": [
		"completed"
	],
	"properties": {
		"completed": {
			"type": "boolean"
		},
		"signal_strength": {
			"type": "integer"
		}
	},
	"additionalProperties": false
}`
