package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/l5x-extractor/backend/internal/l5x"
	"github.com/l5x-extractor/backend/internal/models"
)

// Renderer consumes a finished fixture bundle and writes its report files
// into the output folder, returning the workbook path. The pipeline only
// depends on this seam; workbook mechanics live in the report package.
type Renderer interface {
	Render(bundle *models.FixtureBundle, outputDir string) (string, error)
}

// ProgressFunc reports routine-level progress during a run.
type ProgressFunc func(done, total int)

// Pipeline drives one document through fixture resolution, the extractor
// set, validation and rendering. Failures are isolated at fixture
// granularity: a broken fixture never aborts the others.
type Pipeline struct {
	conv       *Conventions
	log        *slog.Logger
	renderer   Renderer
	extractors []Extractor
	validator  *ArrayValidator

	// OnProgress, when set, is called after each routine completes.
	OnProgress ProgressFunc
}

// New creates a pipeline. A nil conventions set uses the defaults; a nil
// logger discards pipeline logging.
func New(conv *Conventions, renderer Renderer, log *slog.Logger) *Pipeline {
	if conv == nil {
		conv = DefaultConventions()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		conv:       conv,
		log:        log,
		renderer:   renderer,
		extractors: orderedExtractors(),
		validator:  NewArrayValidator(),
	}
}

// fixtureScope is one resolved or implicit fixture queued for extraction.
type fixtureScope struct {
	program     *l5x.Program // nil for the implicit whole-document fixture
	programName string
	name        string
	routines    []string
}

// Run processes one L5X file and writes reports under outputDir.
// Single-fixture documents render flat into outputDir; multi-fixture
// documents get one subfolder per fixture, named by its program. The mode
// is decided once from the fixture count and re-derivable from the input.
func (p *Pipeline) Run(l5xPath, outputDir string) (*models.RunResult, error) {
	return p.RunNamed(l5xPath, filepath.Base(l5xPath), outputDir)
}

// RunNamed is Run with an explicit source name, for callers whose on-disk
// path is an opaque ID rather than the document's original filename. The
// name feeds the fixture-name fallback.
func (p *Pipeline) RunNamed(l5xPath, sourceName, outputDir string) (*models.RunResult, error) {
	doc, err := l5x.Load(l5xPath)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = sourceName

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}

	result := &models.RunResult{SourceFile: doc.SourceFile}

	scopes, resolutionWarnings := p.resolveScopes(doc)
	result.Warnings = append(result.Warnings, resolutionWarnings...)
	if len(scopes) == 0 {
		p.log.Warn("no sequence routines found in document", "file", doc.SourceFile)
		return result, nil
	}

	multi := len(scopes) >= 2
	result.MultiFixture = multi

	total := 0
	for _, fx := range scopes {
		total += len(fx.routines)
	}

	done := 0
	for _, fx := range scopes {
		fixtureDir := outputDir
		if multi {
			fixtureDir = filepath.Join(outputDir, fx.programName)
			if err := os.MkdirAll(fixtureDir, 0o755); err != nil {
				p.log.Error("failed to create fixture subfolder",
					"fixture", fx.name, "error", err)
				result.Warnings = append(result.Warnings, models.Warning{
					Kind:    models.WarningExtractionGap,
					Unit:    fx.name,
					Message: fmt.Sprintf("cannot create fixture output folder: %v", err),
				})
				done += len(fx.routines)
				continue
			}
		}

		p.log.Info("processing fixture",
			"fixture", fx.name, "routines", len(fx.routines))

		for _, routineName := range fx.routines {
			bundle := p.extractRoutine(doc, fx, routineName, multi)
			result.Bundles = append(result.Bundles, bundle)
			result.Warnings = append(result.Warnings, bundle.Warnings...)

			if p.renderer != nil {
				workbook, err := p.renderer.Render(bundle, fixtureDir)
				if err != nil {
					p.log.Error("report rendering failed",
						"fixture", fx.name, "routine", routineName, "error", err)
					result.Warnings = append(result.Warnings, models.Warning{
						Kind:    models.WarningExtractionGap,
						Unit:    routineName,
						Message: fmt.Sprintf("report rendering failed: %v", err),
					})
				} else {
					result.Outputs = append(result.Outputs, models.RoutineOutput{
						FixtureName:     bundle.FixtureName,
						ProgramName:     bundle.ProgramName,
						RoutineName:     bundle.RoutineName,
						WorkbookPath:    workbook,
						SequenceCount:   len(bundle.Sequences),
						TransitionCount: len(bundle.Transitions),
						InputCount:      len(bundle.DigitalInputs),
						GroupCount:      len(bundle.ActuatorGroups),
					})
				}
			}

			done++
			if p.OnProgress != nil {
				p.OnProgress(done, total)
			}
		}
	}

	p.log.Info("extraction complete",
		"file", doc.SourceFile, "fixtures", len(scopes),
		"routines", len(result.Bundles), "warnings", len(result.Warnings))

	return result, nil
}

// resolveScopes maps resolved fixtures to extraction scopes, falling back
// to a single implicit whole-document fixture when no program matched.
func (p *Pipeline) resolveScopes(doc *l5x.Document) ([]fixtureScope, []models.Warning) {
	fixtures := l5x.ResolveFixtures(doc, p.conv.SequenceRoutinePrefix)
	if len(fixtures) > 0 {
		scopes := make([]fixtureScope, 0, len(fixtures))
		for _, fx := range fixtures {
			scopes = append(scopes, fixtureScope{
				program:     fx.Program,
				programName: fx.Program.Name,
				name:        fx.Name,
				routines:    fx.SeqRoutines,
			})
		}
		return scopes, nil
	}

	// Whole-file single-fixture fallback, kept for documents exported
	// before programs carried station tokens.
	var routines []string
	for i := range doc.Controller.Programs {
		for _, r := range doc.Controller.Programs[i].RoutinesWithPrefix(p.conv.SequenceRoutinePrefix) {
			routines = append(routines, r.Name)
		}
	}

	name, matched := l5x.FixtureNameFromFile(doc.SourceFile, p.conv.FallbackFixtureName)

	warnings := []models.Warning{{
		Kind:    models.WarningResolution,
		Unit:    doc.SourceFile,
		Message: fmt.Sprintf("no fixture program matched, treating whole file as fixture %q", name),
	}}
	if !matched {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningResolution,
			Unit:    doc.SourceFile,
			Message: fmt.Sprintf("filename carries no fixture token, using fallback name %q", name),
		})
	}
	if len(routines) == 0 {
		return nil, warnings
	}

	return []fixtureScope{{name: name, routines: routines}}, warnings
}

// extractRoutine runs the fixed-order extractor table and the validator
// over one sequence routine. A panicking extractor is confined to its slot.
func (p *Pipeline) extractRoutine(doc *l5x.Document, fx fixtureScope, routineName string, multi bool) *models.FixtureBundle {
	scope := &Scope{
		Doc:          doc,
		Program:      fx.program,
		RoutineName:  routineName,
		FixtureName:  fx.name,
		MultiFixture: multi,
		Conv:         p.conv,
		Log:          p.log,
	}

	bundle := &models.FixtureBundle{
		FixtureName:  fx.name,
		ProgramName:  fx.programName,
		RoutineName:  routineName,
		MultiFixture: multi,
	}

	for _, ex := range p.extractors {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("extractor panicked",
						"extractor", ex.Name(), "routine", routineName, "panic", r)
					bundle.Warnings = append(bundle.Warnings, models.Warning{
						Kind:    models.WarningExtractionGap,
						Unit:    routineName,
						Message: fmt.Sprintf("extractor %s failed: %v", ex.Name(), r),
					})
				}
			}()
			bundle.Warnings = append(bundle.Warnings, ex.Extract(scope, bundle)...)
		}()
	}

	bundle.Warnings = append(bundle.Warnings, p.validator.Validate(scope, bundle)...)

	return bundle
}
