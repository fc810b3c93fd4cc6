package service

import (
	"fmt"
	"strings"
)

type Variable string

const (
	ApparentTemperature Variable = "apparent_temperature"
	IsDay               Variable = "is_day"
	Precipitation       Variable = "precipitation"
	Rain                Variable = "rain"
	Showers             Variable = "showers"
	Snowfall            Variable = "snowfall"

	Temperature2mMax Variable = "temperature_2m_max"
	Temperature2mMin Variable = "temperature_2m_min"
)

// VariableSet is an ordered list of provider fields with a name to position
// index. The order is the order fields are requested in and the order their
// values come back in.
type VariableSet struct {
	vars  []Variable
	index map[Variable]int
}

func NewVariableSet(vars ...Variable) (VariableSet, error) {
	set := VariableSet{
		vars:  make([]Variable, 0, len(vars)),
		index: make(map[Variable]int, len(vars)),
	}

	for _, v := range vars {
		if v == "" {
			return VariableSet{}, fmt.Errorf("empty variable name")
		}
		if _, dup := set.index[v]; dup {
			return VariableSet{}, fmt.Errorf("duplicate variable %q", v)
		}
		set.index[v] = len(set.vars)
		set.vars = append(set.vars, v)
	}

	return set, nil
}

// MustVariableSet is NewVariableSet for package-level sets.
func MustVariableSet(vars ...Variable) VariableSet {
	set, err := NewVariableSet(vars...)
	if err != nil {
		panic(err)
	}
	return set
}

func (s VariableSet) Len() int {
	return len(s.vars)
}

func (s VariableSet) Variables() []Variable {
	out := make([]Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

func (s VariableSet) Index(v Variable) (int, bool) {
	i, ok := s.index[v]
	return i, ok
}

// String renders the set as the comma separated query value.
func (s VariableSet) String() string {
	names := make([]string, len(s.vars))
	for i, v := range s.vars {
		names[i] = string(v)
	}
	return strings.Join(names, ",")
}
