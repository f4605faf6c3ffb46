// Package extract implements the L5X extraction pipeline: seven regex and
// structure extractors over fixture scopes, an array validator, and the
// orchestrator that merges their results into fixture bundles.
package extract

import (
	"log/slog"

	"github.com/l5x-extractor/backend/internal/l5x"
	"github.com/l5x-extractor/backend/internal/models"
)

// Scope carries the per-fixture context shared by every extractor in a run.
// Program is nil in whole-document fallback mode, in which case lookups span
// all programs.
type Scope struct {
	Doc          *l5x.Document
	Program      *l5x.Program
	RoutineName  string // current sequence routine
	FixtureName  string
	MultiFixture bool
	Conv         *Conventions
	Log          *slog.Logger
}

// Programs returns the program scopes this fixture's extractors search.
func (s *Scope) Programs() []*l5x.Program {
	if s.Program != nil {
		return []*l5x.Program{s.Program}
	}
	out := make([]*l5x.Program, 0, len(s.Doc.Controller.Programs))
	for i := range s.Doc.Controller.Programs {
		out = append(out, &s.Doc.Controller.Programs[i])
	}
	return out
}

// FindRoutine locates a routine by name, preferring the fixture's program
// and falling back to a document-wide search.
func (s *Scope) FindRoutine(name string) *l5x.Routine {
	if s.Program != nil {
		if r := s.Program.Routine(name); r != nil {
			return r
		}
		s.Log.Debug("routine not in fixture program, searching globally",
			"routine", name, "program", s.Program.Name)
	}
	_, r := s.Doc.FindRoutine(name)
	return r
}

// Extractor is the shared extraction lifecycle: locate matches in the scope,
// validate them, and write the typed result set onto the bundle. Returned
// warnings are annotations; an extractor never aborts the run.
type Extractor interface {
	Name() string
	Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning
}

// orderedExtractors returns the extractor dispatch table in its fixed run
// order. Later extractors consume indices and names produced earlier (valve
// mapping needs the MM numbers the sequence extractor recovered), so the
// order is part of the contract.
func orderedExtractors() []Extractor {
	return []Extractor{
		NewSequenceExtractor(),
		NewActuatorExtractor(),
		NewActuatorGroupExtractor(),
		NewTransitionExtractor(),
		NewDigitalInputExtractor(),
		NewPartSensorExtractor(),
		NewValveMappingExtractor(),
	}
}
