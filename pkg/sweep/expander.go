package sweep

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Space holds the sweep dimensions before expansion.
type Space struct {
	Seeds           []int
	InstructionSets []InstructionSet
	DataTypes       []DataType
}

// Size returns the number of tuples Expand will produce.
func (s Space) Size() int {
	return len(s.Seeds) * len(s.InstructionSets) * len(s.DataTypes)
}

// Mini truncates every dimension independently to at most k elements, before
// the product is taken, so a reduced run still exercises genuine
// cross-combinations rather than a prefix of the full product.
// k=0 disables truncation.
func (s Space) Mini(k int) Space {
	if k <= 0 {
		return s
	}

	reduced := s
	if len(reduced.Seeds) > k {
		reduced.Seeds = reduced.Seeds[:k]
	}
	if len(reduced.InstructionSets) > k {
		reduced.InstructionSets = reduced.InstructionSets[:k]
	}
	if len(reduced.DataTypes) > k {
		reduced.DataTypes = reduced.DataTypes[:k]
	}
	return reduced
}

// Expand emits the Cartesian product of the dimensions in fixed nested order:
// seed outermost, then instruction set, then data type. The order is stable
// between runs so sweeps stay reproducible.
func (s Space) Expand() []Tuple {
	tuples := make([]Tuple, 0, s.Size())
	for _, seed := range s.Seeds {
		for _, instrSet := range s.InstructionSets {
			for _, dataType := range s.DataTypes {
				tuples = append(tuples, Tuple{
					Seed:     seed,
					InstrSet: instrSet,
					DataType: dataType,
				})
			}
		}
	}
	return tuples
}

// ParseSeedRange parses an inclusive seed range spec like "0-4".
func ParseSeedRange(rangeSpec string) ([]int, error) {
	boundaries := strings.Split(rangeSpec, "-")
	if len(boundaries) != 2 {
		return nil, errors.Errorf("malformed seed range %q, expected <from>-<to>", rangeSpec)
	}

	from, err := strconv.Atoi(boundaries[0])
	if err != nil {
		return nil, errors.Wrapf(err, "malformed seed range %q", rangeSpec)
	}
	to, err := strconv.Atoi(boundaries[1])
	if err != nil {
		return nil, errors.Wrapf(err, "malformed seed range %q", rangeSpec)
	}
	if to < from {
		return nil, errors.Errorf("malformed seed range %q, upper bound below lower bound", rangeSpec)
	}

	seeds := []int{}
	for seed := from; seed <= to; seed++ {
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// ParseDataTypes parses a comma separated data type set spec like "double,int".
func ParseDataTypes(setSpec string) ([]DataType, error) {
	dataTypes := []DataType{}
	for _, item := range strings.Split(setSpec, ",") {
		dataType, err := ParseDataType(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		dataTypes = append(dataTypes, dataType)
	}
	return dataTypes, nil
}
