/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package location

// Location types
const (
	TypeWard = "ward"
	TypeBase = "base"
	TypeRoom = "room"
)

// Location is the model for a physical point served by one robot.
type Location struct {
	// Generated document id
	ID string `json:"id" bson:"id"`
	// Human-readable name, unique across all locations
	Name string `json:"name" bson:"name"`
	// Map coordinates in the robot's frame
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	// Free-text description
	Description string `json:"description" bson:"description"`
	// ward, base or room
	Type string `json:"type" bson:"type"`
	// Owning robot id, set at creation and never re-pointed
	Robot string `json:"robot" bson:"robot"`
}

// Coordinates is a 2D map point.
type Coordinates struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// IsValidType reports whether locationType is one of the known types.
func IsValidType(locationType string) bool {
	switch locationType {
	case TypeWard, TypeBase, TypeRoom:
		return true
	}
	return false
}
