/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package recipient

import "time"

// Recipient is the model for a patient registered for deliveries.
//
// The robot field is a snapshot of the location's owner taken at creation
// time. It is not re-synced if the location is ever re-registered; treat it
// as a cache of where the recipient was admitted, not a live reference.
type Recipient struct {
	// Generated document id
	ID string `json:"id" bson:"id"`
	// Full name
	Name string `json:"name" bson:"name"`
	// Generated P-#### code, unique across recipients
	PatientID string `json:"patient_id" bson:"patient_id"`
	// Location the recipient is registered at
	Location string `json:"location" bson:"location"`
	// Owner robot of that location, snapshotted at creation
	Robot string `json:"robot" bson:"robot"`
	// Assigned rfid tag document id
	RFIDTag string `json:"rfid_tag" bson:"rfid_tag"`
	// Assigned ble beacon document id
	BLEBeacon string `json:"ble_beacon" bson:"ble_beacon"`
	// active until checked out
	Status string `json:"status" bson:"status"`
	// Admission time
	Admitted time.Time `json:"admitted" bson:"admitted"`
	// Free-text medical notes relevant to deliveries
	MedicalNotes string `json:"medical_notes" bson:"medical_notes"`
	// Contact phone number
	ContactNumber string `json:"contact_number" bson:"contact_number"`
	// Ordered ids of this recipient's tasks
	DeliveryHistory []string `json:"delivery_history" bson:"delivery_history"`
}

// CreateRequest carries the caller-supplied fields for a new recipient.
type CreateRequest struct {
	Name          string `json:"name"`
	LocationID    string `json:"location"`
	RFIDTagID     string `json:"rfid_tag"`
	BLEBeaconID   string `json:"ble_beacon"`
	MedicalNotes  string `json:"medical_notes"`
	ContactNumber string `json:"contact_number"`
}
