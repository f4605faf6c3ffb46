package models

// ValveMapping binds one MM group command pair to a valve manifold position.
// ValveWork/ValveHome carry position codes like "1A"/"1B", or "N/A" when the
// matching parameter is a spare (monostable valve).
type ValveMapping struct {
	MMNumber  string `json:"mmNumber"`
	Manifold  string `json:"manifold"`
	ValveWork string `json:"valveWork"`
	ValveHome string `json:"valveHome"`
}
