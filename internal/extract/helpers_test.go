package extract

import (
	"log/slog"
	"testing"

	"github.com/l5x-extractor/backend/internal/l5x"
	"github.com/l5x-extractor/backend/internal/models"
)

// newTestScope builds a scope over a hand-assembled document for extractor
// unit tests. Program may be nil for whole-document mode.
func newTestScope(doc *l5x.Document, program *l5x.Program, routineName string) *Scope {
	return &Scope{
		Doc:         doc,
		Program:     program,
		RoutineName: routineName,
		FixtureName: "010UA1",
		Conv:        DefaultConventions(),
		Log:         slog.New(slog.DiscardHandler),
	}
}

// stDoc wraps structured-text lines into a one-program document with a
// single sequence routine.
func stDoc(routineName string, lines ...string) (*l5x.Document, *l5x.Program) {
	stLines := make([]l5x.Line, len(lines))
	for i, text := range lines {
		stLines[i] = l5x.Line{Number: i, Text: text}
	}
	doc := &l5x.Document{
		SourceFile: "_010UA1_Export.L5X",
		Controller: l5x.Controller{Programs: []l5x.Program{{
			Name:     "_010UA1_Fix",
			Routines: []l5x.Routine{{Name: routineName, Type: "ST", Lines: stLines}},
		}}},
	}
	return doc, &doc.Controller.Programs[0]
}

func findSequence(t *testing.T, bundle *models.FixtureBundle, index int) models.Sequence {
	t.Helper()
	for _, seq := range bundle.Sequences {
		if seq.Index == index {
			return seq
		}
	}
	t.Fatalf("sequence %d not found in %v", index, bundle.Sequences)
	return models.Sequence{}
}
