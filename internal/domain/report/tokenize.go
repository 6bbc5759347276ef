package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTokenCount indicates the command does not decompose into one patient
// identifier plus indicator/value pairs.
var ErrTokenCount = errors.New("wrong number of tokens")

// UnknownIndicatorError reports a token that resolves to no indicator.
type UnknownIndicatorError struct {
	Token string
}

func (e *UnknownIndicatorError) Error() string {
	return fmt.Sprintf("unrecognized indicator %q", e.Token)
}

// DuplicateIndicatorError reports an indicator supplied more than once.
type DuplicateIndicatorError struct {
	Indicator Indicator
}

func (e *DuplicateIndicatorError) Error() string {
	return fmt.Sprintf("duplicate indicator %q", e.Indicator)
}

// ParsedCommand is the result of tokenizing one report command.
type ParsedCommand struct {
	PatientID string
	Values    map[Indicator]string
}

// Tokenize splits a report command into a patient identifier and raw
// indicator/value pairs. Messages look like:
//
//	patient_id indicator1 value1 indicator2 value2 [...]
//
// Tokenizing is pure and fail-fast: on any error no partial result is
// returned. A bare patient identifier with no pairs is valid; deciding
// whether an empty report is acceptable belongs to validation.
func Tokenize(text string) (*ParsedCommand, error) {
	tokens := strings.Fields(text)

	// One token for the patient identifier plus two per indicator.
	if len(tokens)%2 != 1 {
		return nil, ErrTokenCount
	}

	cmd := &ParsedCommand{
		PatientID: tokens[0],
		Values:    make(map[Indicator]string, len(tokens)/2),
	}

	for i := 1; i < len(tokens); i += 2 {
		ind, ok := ResolveIndicator(tokens[i])
		if !ok {
			return nil, &UnknownIndicatorError{Token: tokens[i]}
		}
		if _, dup := cmd.Values[ind]; dup {
			return nil, &DuplicateIndicatorError{Indicator: ind}
		}
		cmd.Values[ind] = tokens[i+1]
	}

	return cmd, nil
}
