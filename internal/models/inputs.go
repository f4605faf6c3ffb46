package models

// DigitalInput is one mapped digital-input tag. Duplicate declarations
// across programs are preserved as distinct rows - they represent distinct
// wiring points.
type DigitalInput struct {
	Program     string   `json:"program"`
	TagName     string   `json:"tagName"`
	Description string   `json:"description,omitempty"`
	ParentName  string   `json:"parentName"`
	Parts       []string `json:"parts,omitempty"` // part labels assigned via part-sensor mapping
}

// ActuatorGroup is a named actuator group tag (e.g. "MM3") with its
// description, used purely for report enrichment.
type ActuatorGroup struct {
	Program     string `json:"program"`
	TagName     string `json:"tagName"`
	Description string `json:"description"`
}

// PartSensor binds one sensor tag to a slot of a part detection unit.
type PartSensor struct {
	Sensor string `json:"sensor"`
	Slot   int    `json:"slot"`
}

// Part is one part-present detection unit with its mapped sensors.
type Part struct {
	Index   int          `json:"index"`
	Routine string       `json:"routine"`
	Sensors []PartSensor `json:"sensors"`
}
