package models

// WarningKind classifies a non-fatal finding recorded during extraction.
type WarningKind string

const (
	// WarningResolution - no fixture scope matched; whole-file fallback used.
	WarningResolution WarningKind = "resolution"
	// WarningExtractionGap - an extractor pattern found zero matches where a
	// routine was expected to contain them.
	WarningExtractionGap WarningKind = "extraction_gap"
	// WarningValidation - array continuity or part-count check failed.
	WarningValidation WarningKind = "validation"
)

// Warning is an annotation attached to a result bundle. Warnings never abort
// extraction; the renderer and the log are their only consumers.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Unit    string      `json:"unit"` // routine, program or file the finding applies to
	Message string      `json:"message"`
}
