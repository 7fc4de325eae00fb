/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package identification

// Tag types
const (
	TypeRFID = "rfid"
	TypeBLE  = "ble"
)

// Tag is the model for one physical identification tag (RFID or BLE).
type Tag struct {
	// Generated document id
	ID string `json:"id" bson:"id"`
	// rfid or ble
	Type string `json:"type" bson:"type"`
	// Printed code on the tag, unique across both tag types
	TagCode string `json:"tag_code" bson:"tag_code"`
	// Hardware identifier, unique across both tag types
	TagID string `json:"tag_id" bson:"tag_id"`
	// Last reported signal strength in dBm
	SignalStrength int `json:"signal_strength" bson:"signal_strength"`
	// Recipient this tag is assigned to, empty while unassigned
	AssignedTo string `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	// active once assigned, available otherwise
	Status string `json:"status" bson:"status"`
	// Ordered confirmations this tag took part in
	UsageHistory []UsageRecord `json:"usage_history" bson:"usage_history"`
}

// UsageRecord is one confirmation event in a tag's history.
type UsageRecord struct {
	// Task the confirmation belonged to
	Task string `json:"task" bson:"task"`
	// Confirmation time in milliseconds epoch
	Timestamp int64 `json:"timestamp" bson:"timestamp"`
	// Signal strength at confirmation in dBm
	SignalStrength int `json:"signal_strength" bson:"signal_strength"`
}

// IsValidType reports whether tagType is one of the known types.
func IsValidType(tagType string) bool {
	return tagType == TypeRFID || tagType == TypeBLE
}
