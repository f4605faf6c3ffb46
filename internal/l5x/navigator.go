package l5x

import (
	"regexp"
	"strconv"
	"strings"
)

// Pure query helpers. All of these return empty results rather than errors:
// a malformed document never gets this far (Load fails), and an absent
// routine or tag is a normal condition the extractors handle themselves.

// FindProgram returns the first program matching the predicate, or nil.
func (d *Document) FindProgram(match func(*Program) bool) *Program {
	for i := range d.Controller.Programs {
		if match(&d.Controller.Programs[i]) {
			return &d.Controller.Programs[i]
		}
	}
	return nil
}

// ProgramByName returns the program with the given name, or nil.
func (d *Document) ProgramByName(name string) *Program {
	return d.FindProgram(func(p *Program) bool { return p.Name == name })
}

// FindRoutine searches every program for a routine by name and returns the
// owning program together with the routine.
func (d *Document) FindRoutine(name string) (*Program, *Routine) {
	for i := range d.Controller.Programs {
		p := &d.Controller.Programs[i]
		if r := p.Routine(name); r != nil {
			return p, r
		}
	}
	return nil, nil
}

// TagsOfType returns all tags of the given data type across every program
// scope, paired with the owning program name. Controller-scoped tags are
// excluded: digital-input and actuator-group tags are always program-local.
func (d *Document) TagsOfType(dataType string) []ScopedTag {
	var out []ScopedTag
	for i := range d.Controller.Programs {
		p := &d.Controller.Programs[i]
		for _, t := range p.TagsOfType(dataType) {
			out = append(out, ScopedTag{Program: p.Name, Tag: t})
		}
	}
	return out
}

// ScopedTag is a tag together with the name of its owning program.
type ScopedTag struct {
	Program string
	Tag     *Tag
}

// Routine returns the named routine of this program, or nil.
func (p *Program) Routine(name string) *Routine {
	for i := range p.Routines {
		if p.Routines[i].Name == name {
			return &p.Routines[i]
		}
	}
	return nil
}

// RoutinesWithPrefix returns routines whose name starts with prefix, in
// document order.
func (p *Program) RoutinesWithPrefix(prefix string) []*Routine {
	var out []*Routine
	for i := range p.Routines {
		if strings.HasPrefix(p.Routines[i].Name, prefix) {
			out = append(out, &p.Routines[i])
		}
	}
	return out
}

// RoutinesMatching returns routines whose name matches the pattern, in
// document order.
func (p *Program) RoutinesMatching(re *regexp.Regexp) []*Routine {
	var out []*Routine
	for i := range p.Routines {
		if re.MatchString(p.Routines[i].Name) {
			out = append(out, &p.Routines[i])
		}
	}
	return out
}

// TagsOfType returns this program's tags of the given data type.
func (p *Program) TagsOfType(dataType string) []*Tag {
	var out []*Tag
	for i := range p.Tags {
		if p.Tags[i].DataType == dataType {
			out = append(out, &p.Tags[i])
		}
	}
	return out
}

// TagByName returns the named tag of this program, or nil.
func (p *Program) TagByName(name string) *Tag {
	for i := range p.Tags {
		if p.Tags[i].Name == name {
			return &p.Tags[i]
		}
	}
	return nil
}

// Text returns the routine's logic as one text blob: ST lines followed by
// ladder rung instruction text, newline separated.
func (r *Routine) Text() string {
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	for _, rg := range r.Rungs {
		b.WriteString(rg.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Dimension parses the tag's array dimension. Multi-dimensional tags report
// their first extent. Returns false for scalar or malformed dimensions.
func (t *Tag) Dimension() (int, bool) {
	s := strings.TrimSpace(t.Dimensions)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	// Complex format like "8 4": take the leading number.
	if i := strings.IndexAny(s, " ,"); i > 0 {
		if n, err := strconv.Atoi(s[:i]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ParentName extracts the configured parent from a digital-input tag's
// decorated data: Structure/Cfg/ParentName/DATA.
func (t *Tag) ParentName() string {
	for _, d := range t.Data {
		if d.Structure == nil {
			continue
		}
		for _, m := range d.Structure.Members {
			if m.Name != "Cfg" {
				continue
			}
			if v := findMemberValue(m.Members, "ParentName", "DATA"); v != "" {
				return v
			}
		}
	}
	return ""
}

// findMemberValue walks members for the named member and returns the text
// of its DATA value, quotes stripped.
func findMemberValue(members []StructureMember, memberName, valueName string) string {
	for _, m := range members {
		if m.Name == memberName {
			for _, v := range m.Values {
				if v.Name == valueName {
					return strings.Trim(strings.TrimSpace(v.Text), "'\"")
				}
			}
		}
		if v := findMemberValue(m.Members, memberName, valueName); v != "" {
			return v
		}
	}
	return ""
}
