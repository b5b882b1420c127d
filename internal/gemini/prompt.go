package gemini

import (
	"fmt"
	"strings"

	"alcyxob/workout-log/internal/domain"
)

const promptTemplate = `Turn the "user input" below, a gym workout entry, into valid JSON for a load progression chart.

The user input must contain:
- the exercise name
- the number of sets
- the repetitions of each set
- the weight used

Interpretation rules:
1. The input may come in different formats and languages, but it names an exercise followed by sets, repetitions and weights.
2. Read these formats correctly:
   - Format 1: "Supino Inclinado 30°(H) 10x25 6x25"
     Each "NxM" pair is one set: N repetitions with M kg.
     "10x25 6x25" means set 1: 10 reps at 25 kg, set 2: 6 reps at 25 kg.
   - Format 2: "Supino Inclinado 30°(H) 3x10x25"
     "3x" is the number of sets, "10x" the repetitions per set, "25" the weight of every set.
     "3x10x25" means three sets of 10 reps at 25 kg.
3. If the format differs but the data is there, interpret it and extract the values.
4. If the input does not contain enough data, answer with an error object saying what is missing.

Output when the input is valid, and nothing else:
{
  "exercise": "Exercise Name",
  "sets": [
    { "reps": number, "weight": number },
    { "reps": number, "weight": number }
  ],
  "category": "Exercise Category"
}

Output when the input is not valid:
{ "error": "friendly message saying what is missing" }

IMPORTANT:
- Keep the exercise name exactly as the user wrote it.
- "reps" is a positive integer and "weight" a number in kilograms; use 0 for bodyweight.
- Pick "category" from the exercise name, preferably one of: %s.
- Return only the JSON, without explanations and without code fences.

User input:
%q
`

// BuildPrompt embeds the user's free text and the expected output schema in
// the instruction sent to the model.
func BuildPrompt(input string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(domain.CatalogGroups(), ", "), input)
}
