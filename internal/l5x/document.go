// Package l5x loads RSLogix 5000 L5X export files and provides query
// helpers over the Controller/Program/Routine/Tag tree.
package l5x

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMalformedDocument indicates the file could not be parsed as L5X XML.
var ErrMalformedDocument = errors.New("malformed L5X document")

// Document is one loaded control-program file.
type Document struct {
	SourceFile string
	Controller Controller
}

type content struct {
	XMLName    xml.Name   `xml:"RSLogix5000Content"`
	Controller Controller `xml:"Controller"`
}

// Controller holds the programs and controller-scoped tags of the export.
type Controller struct {
	Name     string    `xml:"Name,attr"`
	Programs []Program `xml:"Programs>Program"`
	Tags     []Tag     `xml:"Tags>Tag"`
}

// Program is a logical fixture or utility scope.
type Program struct {
	Name     string    `xml:"Name,attr"`
	Tags     []Tag     `xml:"Tags>Tag"`
	Routines []Routine `xml:"Routines>Routine"`
}

// Routine is a named block of logic, structured text (ST) or ladder (RLL).
type Routine struct {
	Name  string `xml:"Name,attr"`
	Type  string `xml:"Type,attr"`
	Lines []Line `xml:"STContent>Line"`
	Rungs []Rung `xml:"RLLContent>Rung"`
}

// Line is one structured-text source line.
type Line struct {
	Number int    `xml:"Number,attr"`
	Text   string `xml:",chardata"`
}

// Rung is one ladder rung; Text holds the instruction list.
type Rung struct {
	Number int    `xml:"Number,attr"`
	Text   string `xml:"Text"`
}

// Tag is one tag declaration, controller- or program-scoped.
type Tag struct {
	Name        string `xml:"Name,attr"`
	DataType    string `xml:"DataType,attr"`
	Dimensions  string `xml:"Dimensions,attr"`
	Description string `xml:"Description"`
	Data        []Data `xml:"Data"`
}

// Data is one encoded data block of a tag. Only the Decorated format
// carries the Structure tree we navigate.
type Data struct {
	Format    string     `xml:"Format,attr"`
	Structure *Structure `xml:"Structure"`
}

// Structure is the decorated value tree of a structured tag.
type Structure struct {
	DataType string            `xml:"DataType,attr"`
	Members  []StructureMember `xml:"StructureMember"`
	Values   []DataValueMember `xml:"DataValueMember"`
}

// StructureMember is a nested member of a Structure.
type StructureMember struct {
	Name     string            `xml:"Name,attr"`
	DataType string            `xml:"DataType,attr"`
	Members  []StructureMember `xml:"StructureMember"`
	Values   []DataValueMember `xml:"DataValueMember"`
}

// DataValueMember is a leaf value. String-typed members carry their value
// as element text, scalars as a Value attribute.
type DataValueMember struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
	Text  string `xml:",chardata"`
}

// Load parses an L5X file from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading L5X file: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	doc.SourceFile = filepath.Base(path)

	return doc, nil
}

// Parse parses L5X content held in memory.
func Parse(data []byte) (*Document, error) {
	var c content
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &Document{Controller: c.Controller}, nil
}
