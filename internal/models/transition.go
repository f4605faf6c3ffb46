package models

import "fmt"

// Permission is one AutoStartPerms entry of a transition state.
type Permission struct {
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

// Transition is one transition state with its ordered permission entries.
type Transition struct {
	Index       int          `json:"index"`
	Name        string       `json:"name,omitempty"`
	Permissions []Permission `json:"permissions"`
}

// DisplayName returns the recovered name, or the numeric index when no
// region marker named the transition state.
func (t Transition) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("Transition State %d", t.Index)
}
