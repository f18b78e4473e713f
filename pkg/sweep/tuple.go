// Package sweep expands the training parameter space into the ordered list of
// parameter tuples that one orchestrated run consists of.
package sweep

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DataType is the arithmetic representation a trained policy is specialized to.
type DataType string

// Supported arithmetic representations.
const (
	Double     DataType = "double"
	Float      DataType = "float"
	Integer    DataType = "int"
	FixedPoint DataType = "fixedpt"
)

// ParseDataType validates a data type tag.
func ParseDataType(tag string) (DataType, error) {
	switch DataType(tag) {
	case Double, Float, Integer, FixedPoint:
		return DataType(tag), nil
	}
	return "", errors.Errorf("unrecognized data type %q", tag)
}

// InstructionFlag is a single named boolean switch of an instruction set.
type InstructionFlag struct {
	Name  string
	Value bool
}

// InstructionSet is a named combination of instruction flags offered to the
// trainer. The name is decoration only and never contributes to unit identity.
type InstructionSet struct {
	Name  string
	Flags []InstructionFlag
}

// Tuple is one point of the parameter space. Tuples are immutable once
// expanded; the materializer derives the experiment unit from them.
type Tuple struct {
	Seed     int
	InstrSet InstructionSet
	DataType DataType
}

// Field is one `key-value` pair of a tuple in its canonical order.
type Field struct {
	Key   string
	Value string
}

// instrSetNameKey is the decoration field excluded from unit identity.
const instrSetNameKey = "instrSetName"

// Fields returns the tuple contents in canonical order: instruction flags
// first, then seed and data type, the decorative set name last. The order is
// fixed so identical values always format identically.
func (t Tuple) Fields() []Field {
	fields := make([]Field, 0, len(t.InstrSet.Flags)+3)
	for _, flag := range t.InstrSet.Flags {
		fields = append(fields, Field{Key: flag.Name, Value: formatBool(flag.Value)})
	}
	fields = append(fields,
		Field{Key: "seed", Value: strconv.Itoa(t.Seed)},
		Field{Key: "instrType", Value: string(t.DataType)},
		Field{Key: instrSetNameKey, Value: t.InstrSet.Name},
	)
	return fields
}

// ID derives the experiment unit identity from the tuple values. It is a pure
// function of the field values excluding the decorative set name: equal values
// give equal ids and any differing field gives a different id, as long as
// formatted values never contain the `_` separator.
func (t Tuple) ID() string {
	parts := []string{}
	for _, field := range t.Fields() {
		if field.Key == instrSetNameKey {
			continue
		}
		parts = append(parts, field.Key+"-"+field.Value)
	}
	return strings.Join(parts, "_")
}

// Booleans are capitalized on disk. Existing sweep storage uses that
// formatting and resumed runs must keep matching it.
func formatBool(value bool) string {
	if value {
		return "True"
	}
	return "False"
}
