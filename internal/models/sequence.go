// Package models contains domain types for the L5X sequence extractor.
package models

import "fmt"

// Actuator is one physical actuator parsed from an MM routine MOVE statement.
type Actuator struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	MMNumber    string `json:"mmNumber"`
}

// ArrayCheck reports index continuity for one MM actuator array.
type ArrayCheck struct {
	ArrayName      string `json:"arrayName"`
	Dimension      int    `json:"dimension"` // 0 when the Cyls tag was not found
	Found          int    `json:"found"`
	MissingIndices []int  `json:"missingIndices,omitempty"`
	Valid          bool   `json:"valid"`
}

// Action is one action slot within a sequence step.
// MMNumber and State are empty when the action name carries no MM token.
type Action struct {
	Slot       int         `json:"slot"`
	Name       string      `json:"name"`
	MMNumber   string      `json:"mmNumber,omitempty"`
	State      string      `json:"state,omitempty"`
	Actuators  []Actuator  `json:"actuators"`
	Validation *ArrayCheck `json:"validation,omitempty"`
}

// Step groups the actions of one sequence step, in authoring order.
type Step struct {
	Index   int      `json:"index"`
	Actions []Action `json:"actions"`
}

// Sequence is one automation sequence recovered from a sequence routine.
type Sequence struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Steps []Step `json:"steps"`
}

// DisplayName returns the recovered name, or the numeric index when no
// region marker or Name assignment named the sequence.
func (s Sequence) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Sequence %d", s.Index)
}
