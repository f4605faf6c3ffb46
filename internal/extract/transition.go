package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/l5x-extractor/backend/internal/models"
)

// Grammar for transition permission assignments. The trailing comment on an
// assignment line documents the permission and is carried into the report.
var (
	transitionPermPattern   = regexp.MustCompile(`EmTransitionStates\[(\d+)\]\.AutoStartPerms\.(\d+)\s*:=\s*([^;]+);\s*(?://(.*))?`)
	transitionRegionPattern = regexp.MustCompile(`#region\s+Transition\s+State\s+(\d+)\s+-\s+(.+)`)
)

// TransitionExtractor parses AutoStartPerms assignments from the same
// routine the sequences live in. One Transition per distinct state index,
// permissions ordered by their entry index.
type TransitionExtractor struct {
	perm   *regexp.Regexp
	region *regexp.Regexp
}

// NewTransitionExtractor creates a transition extractor.
func NewTransitionExtractor() *TransitionExtractor {
	return &TransitionExtractor{perm: transitionPermPattern, region: transitionRegionPattern}
}

func (e *TransitionExtractor) Name() string { return "transitions" }

// Extract fills bundle.Transitions from the scope's sequence routine.
func (e *TransitionExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	routine := scope.FindRoutine(scope.RoutineName)
	if routine == nil {
		return []models.Warning{{
			Kind:    models.WarningExtractionGap,
			Unit:    scope.RoutineName,
			Message: "transition routine not found",
		}}
	}

	names := make(map[int]string)
	perms := make(map[int][]models.Permission)

	for _, line := range strings.Split(routine.Text(), "\n") {
		if rm := e.region.FindStringSubmatch(line); rm != nil {
			idx, _ := strconv.Atoi(rm[1])
			names[idx] = strings.TrimSpace(rm[2])
		}

		for _, m := range e.perm.FindAllStringSubmatch(line, -1) {
			transIdx, _ := strconv.Atoi(m[1])
			permIdx, _ := strconv.Atoi(m[2])
			perms[transIdx] = append(perms[transIdx], models.Permission{
				Index:   permIdx,
				Value:   strings.TrimSpace(m[3]),
				Comment: strings.TrimSpace(m[4]),
			})
		}
	}

	indices := make([]int, 0, len(perms))
	for idx := range perms {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	bundle.Transitions = make([]models.Transition, 0, len(indices))
	for _, idx := range indices {
		entries := perms[idx]
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
		bundle.Transitions = append(bundle.Transitions, models.Transition{
			Index:       idx,
			Name:        names[idx],
			Permissions: entries,
		})
	}

	scope.Log.Debug("transitions extracted",
		"routine", scope.RoutineName, "count", len(bundle.Transitions))

	return nil
}
