package sweep

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// definition mirrors the YAML sweep definition document.
// Instruction flags are declared as a list of single-key maps so the
// declaration order is preserved; flag order is part of unit identity.
type definition struct {
	Seeds           string                     `yaml:"seeds"`
	DataTypes       string                     `yaml:"dataTypes"`
	InstructionSets []instructionSetDefinition `yaml:"instructionSets"`
}

type instructionSetDefinition struct {
	Name  string            `yaml:"name"`
	Flags []map[string]bool `yaml:"flags"`
}

// LoadDefinition reads a sweep definition document and validates it into a
// Space. A malformed definition is sweep-fatal by design: there is nothing to
// dispatch when the space itself cannot be trusted.
func LoadDefinition(path string) (Space, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return Space{}, errors.Wrapf(err, "could not read sweep definition %q", path)
	}

	return parseDefinition(raw)
}

func parseDefinition(raw []byte) (Space, error) {
	def := definition{}
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return Space{}, errors.Wrap(err, "could not parse sweep definition")
	}

	seeds, err := ParseSeedRange(def.Seeds)
	if err != nil {
		return Space{}, err
	}

	dataTypes, err := ParseDataTypes(def.DataTypes)
	if err != nil {
		return Space{}, err
	}

	if len(def.InstructionSets) == 0 {
		return Space{}, errors.New("sweep definition declares no instruction sets")
	}

	instructionSets := []InstructionSet{}
	for _, setDef := range def.InstructionSets {
		if setDef.Name == "" {
			return Space{}, errors.New("sweep definition declares an unnamed instruction set")
		}

		instrSet := InstructionSet{Name: setDef.Name}
		for _, flagEntry := range setDef.Flags {
			if len(flagEntry) != 1 {
				return Space{}, errors.Errorf("instruction set %q declares a flag entry with %d keys, expected exactly one", setDef.Name, len(flagEntry))
			}
			for name, value := range flagEntry {
				instrSet.Flags = append(instrSet.Flags, InstructionFlag{Name: name, Value: value})
			}
		}
		instructionSets = append(instructionSets, instrSet)
	}

	return Space{
		Seeds:           seeds,
		InstructionSets: instructionSets,
		DataTypes:       dataTypes,
	}, nil
}
