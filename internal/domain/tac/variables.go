package tac

import (
	"math"
	"strconv"
	"strings"

	"salarizare/internal/domain/formula"
)

// ParseVariableInputs turns raw form values into a variable bag. Values that
// read as numbers are stored as numbers, everything else verbatim.
func ParseVariableInputs(raw map[string]string) formula.Vars {
	vars := make(formula.Vars, len(raw))
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if number, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && !math.IsNaN(number) && !math.IsInf(number, 0) {
			vars[key] = number
			continue
		}
		vars[key] = value
	}
	return vars
}
