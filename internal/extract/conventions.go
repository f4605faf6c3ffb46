package extract

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Conventions names the lexical conventions the extractors recognize. The
// defaults match the plant's controls standard; sites that renamed the UDTs
// or the routing program can override them from a YAML file.
type Conventions struct {
	SequenceRoutinePrefix string `yaml:"sequenceRoutinePrefix"`
	DigitalInputType      string `yaml:"digitalInputType"`
	ActuatorGroupType     string `yaml:"actuatorGroupType"`
	PartTagType           string `yaml:"partTagType"`
	RoutingProgram        string `yaml:"routingProgram"`
	SpareMarker           string `yaml:"spareMarker"`
	FallbackFixtureName   string `yaml:"fallbackFixtureName"`
}

// DefaultConventions returns the stock naming conventions.
func DefaultConventions() *Conventions {
	return &Conventions{
		SequenceRoutinePrefix: "EmStatesAndSequences",
		DigitalInputType:      "UDT_DigitalInputHal",
		ActuatorGroupType:     "AOI_Actuator",
		PartTagType:           "AOI_Part",
		RoutingProgram:        "MapIo",
		SpareMarker:           "Spare.DO",
		FallbackFixtureName:   "complete",
	}
}

// LoadConventions reads convention overrides from a YAML file. Fields left
// empty in the file keep their defaults.
func LoadConventions(path string) (*Conventions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadConventionsFromReader(f)
}

// LoadConventionsFromReader parses convention overrides from an io.Reader.
func LoadConventionsFromReader(r io.Reader) (*Conventions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	conv := DefaultConventions()
	if err := yaml.Unmarshal(data, conv); err != nil {
		return nil, err
	}
	conv.applyDefaults()

	return conv, nil
}

func (c *Conventions) applyDefaults() {
	d := DefaultConventions()
	if c.SequenceRoutinePrefix == "" {
		c.SequenceRoutinePrefix = d.SequenceRoutinePrefix
	}
	if c.DigitalInputType == "" {
		c.DigitalInputType = d.DigitalInputType
	}
	if c.ActuatorGroupType == "" {
		c.ActuatorGroupType = d.ActuatorGroupType
	}
	if c.PartTagType == "" {
		c.PartTagType = d.PartTagType
	}
	if c.RoutingProgram == "" {
		c.RoutingProgram = d.RoutingProgram
	}
	if c.SpareMarker == "" {
		c.SpareMarker = d.SpareMarker
	}
	if c.FallbackFixtureName == "" {
		c.FallbackFixtureName = d.FallbackFixtureName
	}
}
