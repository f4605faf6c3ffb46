package l5x

import (
	"regexp"
	"strings"
)

// DefaultSequenceRoutinePrefix guards fixture candidates: a program only
// qualifies as a fixture if it owns at least one sequence-bearing routine.
const DefaultSequenceRoutinePrefix = "EmStatesAndSequences"

// fixtureTokenPattern matches station tokens like "_010UA1_" inside program
// or file names: three digits, a letter run, one digit, underscore-bounded.
var fixtureTokenPattern = regexp.MustCompile(`_(\d{3}[A-Za-z]+\d)_`)

// Fixture is one resolved fixture scope inside a document.
type Fixture struct {
	Program     *Program
	Name        string   // program name without its leading underscore
	SeqRoutines []string // sequence routine names, document order
}

// ResolveFixtures identifies fixture programs using two ordered heuristics
// on the program name: the strict station-token pattern, then a substring
// match on "Fixture". Candidates without a sequence routine are rejected -
// utility programs share naming coincidences.
func ResolveFixtures(doc *Document, seqPrefix string) []Fixture {
	if seqPrefix == "" {
		seqPrefix = DefaultSequenceRoutinePrefix
	}

	var fixtures []Fixture
	for i := range doc.Controller.Programs {
		p := &doc.Controller.Programs[i]

		if !fixtureTokenPattern.MatchString(p.Name) && !strings.Contains(p.Name, "Fixture") {
			continue
		}

		seqRoutines := p.RoutinesWithPrefix(seqPrefix)
		if len(seqRoutines) == 0 {
			continue
		}

		names := make([]string, len(seqRoutines))
		for j, r := range seqRoutines {
			names[j] = r.Name
		}

		fixtures = append(fixtures, Fixture{
			Program:     p,
			Name:        strings.TrimPrefix(p.Name, "_"),
			SeqRoutines: names,
		})
	}

	return fixtures
}

// FixtureNameFromFile derives a fixture name from an L5X filename for
// single-fixture documents. The station token wins when present; otherwise
// the cleaned base name is used if it mentions "Fixture"; otherwise the
// caller's fallback token is returned with ok=false so the resolution can
// be surfaced as a warning instead of silently defaulting.
func FixtureNameFromFile(filename, fallback string) (name string, ok bool) {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if ext := strings.LastIndex(base, "."); ext > 0 && strings.EqualFold(base[ext:], ".l5x") {
		base = base[:ext]
	}

	if m := fixtureTokenPattern.FindStringSubmatch(base); m != nil {
		return m[1], true
	}

	base = trimSuffixFold(base, "_Program")
	base = strings.TrimPrefix(base, "_")
	if strings.Contains(base, "Fixture") && base != "" {
		return base, true
	}

	return fallback, false
}

func trimSuffixFold(s, suffix string) string {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)]
	}
	return s
}
