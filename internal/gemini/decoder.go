package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"alcyxob/workout-log/internal/domain"
)

// ErrMalformedResponse means the model output is neither a workout record nor an error object.
var ErrMalformedResponse = errors.New("malformed generation output")

// RejectionError carries the model's own explanation of why the input could not be parsed.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// ParsedSet is a set as read from the model, before it is timestamped.
type ParsedSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// ParsedExercise is the record shape of the model output.
type ParsedExercise struct {
	Exercise string      `json:"exercise"`
	Sets     []ParsedSet `json:"sets"`
	Category string      `json:"category"`
}

// Decode reads cleaned model output. It returns the parsed exercise, a
// *RejectionError for the {error} shape, or an error wrapping
// ErrMalformedResponse for anything else.
func Decode(raw string) (*ParsedExercise, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}

	errRaw, hasError := fields["error"]
	_, hasExercise := fields["exercise"]
	_, hasSets := fields["sets"]

	switch {
	case hasError && (hasExercise || hasSets):
		return nil, fmt.Errorf("%w: both error and record fields present", ErrMalformedResponse)
	case hasError:
		var reason string
		if err := json.Unmarshal(errRaw, &reason); err != nil {
			return nil, fmt.Errorf("%w: error field is not a string", ErrMalformedResponse)
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, fmt.Errorf("%w: empty error message", ErrMalformedResponse)
		}
		return nil, &RejectionError{Reason: reason}
	case hasExercise && hasSets:
		return decodeRecord(fields)
	default:
		return nil, fmt.Errorf("%w: missing exercise or sets", ErrMalformedResponse)
	}
}

func decodeRecord(fields map[string]json.RawMessage) (*ParsedExercise, error) {
	var out ParsedExercise

	if err := json.Unmarshal(fields["exercise"], &out.Exercise); err != nil {
		return nil, fmt.Errorf("%w: exercise is not a string", ErrMalformedResponse)
	}
	out.Exercise = strings.TrimSpace(out.Exercise)
	if out.Exercise == "" {
		return nil, fmt.Errorf("%w: empty exercise name", ErrMalformedResponse)
	}

	if catRaw, ok := fields["category"]; ok && !bytes.Equal(bytes.TrimSpace(catRaw), []byte("null")) {
		if err := json.Unmarshal(catRaw, &out.Category); err != nil {
			return nil, fmt.Errorf("%w: category is not a string", ErrMalformedResponse)
		}
		out.Category = strings.TrimSpace(out.Category)
	}
	if out.Category == "" {
		if group, ok := domain.CategoryFor(out.Exercise); ok {
			out.Category = group
		} else {
			out.Category = domain.CategoryOther
		}
	}

	var sets []struct {
		Reps   *float64 `json:"reps"`
		Weight *float64 `json:"weight"`
	}
	if err := json.Unmarshal(fields["sets"], &sets); err != nil {
		return nil, fmt.Errorf("%w: sets is not a list of {reps, weight}", ErrMalformedResponse)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no sets", ErrMalformedResponse)
	}
	for i, s := range sets {
		if s.Reps == nil || s.Weight == nil {
			return nil, fmt.Errorf("%w: set %d lacks reps or weight", ErrMalformedResponse, i+1)
		}
		if *s.Reps <= 0 || *s.Reps > math.MaxInt32 || *s.Reps != math.Trunc(*s.Reps) {
			return nil, fmt.Errorf("%w: set %d reps must be a positive integer", ErrMalformedResponse, i+1)
		}
		if *s.Weight < 0 {
			return nil, fmt.Errorf("%w: set %d weight is negative", ErrMalformedResponse, i+1)
		}
		out.Sets = append(out.Sets, ParsedSet{Reps: int(*s.Reps), Weight: *s.Weight})
	}

	return &out, nil
}
