package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/l5x-extractor/backend/internal/models"
)

// Valve mapping grammar. Stage one reads the fixture's MM routines for the
// command tags wired to each group's Work/Home outputs; stage two reads the
// shared routing program's valve manifold block calls and binds command
// parameters to valve positions.
var (
	mmRoutinePattern    = regexp.MustCompile(`Cm\d+_MM(\d+)`)
	mmCommandPattern    = regexp.MustCompile(`,XIC\(MM(\d+)\.(out(?:Work|Home))\)\s+OTE\(([A-Za-z0-9_]+)`)
	manifoldCallPattern = regexp.MustCompile(`AOI_ValveManifold_V\d+\(([^)]+)\)`)
)

// ValveMappingExtractor cross-references fixture MM commands with the
// routing program's AOI_ValveManifold_V* calls (any width: V4/V8/V12/V16).
// Parameter 3 of a call is the manifold name; parameters from position 6
// onward come in (Work, Home) pairs, one valve each:
// valve_index = ((position - 6) / 2) + 1.
// Single-fixture documents have no routing program and always yield an
// empty set - the report columns stay blank, by design.
type ValveMappingExtractor struct{}

// NewValveMappingExtractor creates a valve mapping extractor.
func NewValveMappingExtractor() *ValveMappingExtractor { return &ValveMappingExtractor{} }

func (e *ValveMappingExtractor) Name() string { return "valve_mappings" }

type mmCommandSet struct {
	workCmd string
	homeCmd string
}

// Extract fills bundle.ValveMappings for multi-fixture documents.
func (e *ValveMappingExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	bundle.ValveMappings = make([]models.ValveMapping, 0)

	if !scope.MultiFixture || scope.Program == nil {
		return nil
	}

	commands := e.fixtureCommands(scope)
	if len(commands) == 0 {
		scope.Log.Debug("no MM commands found in fixture", "fixture", scope.FixtureName)
		return nil
	}

	routing := scope.Doc.ProgramByName(scope.Conv.RoutingProgram)
	if routing == nil {
		return []models.Warning{{
			Kind:    models.WarningExtractionGap,
			Unit:    scope.FixtureName,
			Message: fmt.Sprintf("routing program %q not found, no valve mappings", scope.Conv.RoutingProgram),
		}}
	}

	mmOrder := make([]string, 0, len(commands))
	for mm := range commands {
		mmOrder = append(mmOrder, mm)
	}
	sort.Strings(mmOrder)

	byMM := make(map[string]int)
	for i := range routing.Routines {
		for _, rung := range routing.Routines[i].Rungs {
			text := rung.Text
			// Ladder text may escape the program reference with a backslash.
			if !strings.Contains(text, scope.Program.Name) &&
				!strings.Contains(text, `\`+scope.Program.Name) {
				continue
			}

			for _, call := range manifoldCallPattern.FindAllStringSubmatch(text, -1) {
				for _, m := range e.parseManifoldCall(scope, call[1], mmOrder, commands) {
					if pos, ok := byMM[m.MMNumber]; ok {
						bundle.ValveMappings[pos] = m // last assignment wins
					} else {
						byMM[m.MMNumber] = len(bundle.ValveMappings)
						bundle.ValveMappings = append(bundle.ValveMappings, m)
					}
				}
			}
		}
	}

	scope.Log.Debug("valve mappings extracted",
		"fixture", scope.FixtureName, "count", len(bundle.ValveMappings))

	return nil
}

// fixtureCommands reads the fixture program's MM routines and records the
// command tag wired to each group's Work and Home outputs.
func (e *ValveMappingExtractor) fixtureCommands(scope *Scope) map[string]*mmCommandSet {
	commands := make(map[string]*mmCommandSet)

	for i := range scope.Program.Routines {
		routine := &scope.Program.Routines[i]
		rm := mmRoutinePattern.FindStringSubmatch(routine.Name)
		if rm == nil {
			continue
		}
		mmDigits := rm[1]
		mmKey := "MM" + mmDigits

		if _, ok := commands[mmKey]; !ok {
			commands[mmKey] = &mmCommandSet{}
		}

		for _, cm := range mmCommandPattern.FindAllStringSubmatch(routine.Text(), -1) {
			if cm[1] != mmDigits {
				continue
			}
			switch cm[2] {
			case "outWork":
				commands[mmKey].workCmd = cm[3]
			case "outHome":
				commands[mmKey].homeCmd = cm[3]
			}
		}
	}

	return commands
}

// parseManifoldCall binds one manifold call's parameter list to valve
// mappings for the fixture's commands.
func (e *ValveMappingExtractor) parseManifoldCall(scope *Scope, paramsStr string, mmOrder []string, commands map[string]*mmCommandSet) []models.ValveMapping {
	params := strings.Split(paramsStr, ",")
	for i := range params {
		params[i] = strings.TrimSpace(params[i])
	}

	if len(params) < 7 {
		scope.Log.Debug("manifold call has too few parameters", "count", len(params))
		return nil
	}

	manifold := params[2]
	spare := scope.Conv.SpareMarker

	var mappings []models.ValveMapping
	for i := 5; i+1 < len(params); i += 2 {
		workParam, homeParam := params[i], params[i+1]
		if workParam == "" || homeParam == "" {
			break
		}
		if strings.Contains(workParam, spare) && strings.Contains(homeParam, spare) {
			continue
		}

		valveIndex := ((i - 5) / 2) + 1

		for _, mmKey := range mmOrder {
			cmds := commands[mmKey]
			workMatch := cmds.workCmd != "" && strings.Contains(workParam, cmds.workCmd)
			homeMatch := cmds.homeCmd != "" && strings.Contains(homeParam, cmds.homeCmd)
			if !workMatch && !homeMatch {
				continue
			}

			// Monostable valves have a spare on one side; that side
			// reports no position.
			valveWork := "N/A"
			if workMatch && !strings.Contains(workParam, spare) {
				valveWork = fmt.Sprintf("%dA", valveIndex)
			}
			valveHome := "N/A"
			if homeMatch && !strings.Contains(homeParam, spare) {
				valveHome = fmt.Sprintf("%dB", valveIndex)
			}

			mappings = append(mappings, models.ValveMapping{
				MMNumber:  mmKey,
				Manifold:  manifold,
				ValveWork: valveWork,
				ValveHome: valveHome,
			})
			break
		}
	}

	return mappings
}
