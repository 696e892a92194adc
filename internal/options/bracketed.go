package options

import (
	"fmt"
	"strconv"
	"strings"
)

// Matching bracket styles, in the same order.
const (
	leftBrackets  = "[({"
	rightBrackets = "])}"
)

// MalformedListError reports a bracketed list that could not be interpreted.
type MalformedListError struct {
	Input  string
	Reason string
}

func (e *MalformedListError) Error() string {
	return fmt.Sprintf("malformed bracketed list %q: %s", e.Input, e.Reason)
}

// ParseBracketedList parses a delimiter-separated list of real numbers wrapped
// in one of three bracket styles: [1,2,3], (1,2,3) or {1,2,3}. The opening and
// closing bracket must be the same style. Parsing is all-or-nothing: any token
// that is not a real number fails the whole call with a MalformedListError.
//
// The parser holds no state and is safe for concurrent use.
func ParseBracketedList(list string, delim rune) ([]float64, error) {
	if len(list) < 2 {
		return nil, &MalformedListError{Input: list, Reason: "input shorter than a bracket pair"}
	}

	style := -1
	for i := 0; i < len(leftBrackets); i++ {
		if list[0] == leftBrackets[i] && list[len(list)-1] == rightBrackets[i] {
			style = i
			break
		}
	}
	if style < 0 {
		return nil, &MalformedListError{Input: list, Reason: "no matching bracket pair"}
	}

	interior := list[1 : len(list)-1]
	if interior == "" {
		return []float64{}, nil
	}

	tokens := strings.Split(interior, string(delim))
	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		x, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return nil, &MalformedListError{Input: list, Reason: fmt.Sprintf("cannot interpret %q as a number", tok)}
		}
		values = append(values, x)
	}

	return values, nil
}

// ParseIQBias interprets a 2-element bracketed list "(bias_i,bias_q)".
func ParseIQBias(list string) ([2]float64, error) {
	var bias [2]float64
	vals, err := ParseBracketedList(list, ',')
	if err != nil {
		return bias, err
	}
	if len(vals) != 2 {
		return bias, &MalformedListError{Input: list, Reason: fmt.Sprintf("iq bias requires 2 values, got %d", len(vals))}
	}
	copy(bias[:], vals)
	return bias, nil
}

// ParseIQCorr interprets a 4-element bracketed list "[corr_11,corr_12,corr_21,corr_22]".
func ParseIQCorr(list string) ([4]float64, error) {
	var corr [4]float64
	vals, err := ParseBracketedList(list, ',')
	if err != nil {
		return corr, err
	}
	if len(vals) != 4 {
		return corr, &MalformedListError{Input: list, Reason: fmt.Sprintf("iq correction requires 4 values, got %d", len(vals))}
	}
	copy(corr[:], vals)
	return corr, nil
}
