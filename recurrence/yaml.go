package recurrence

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// LoadRecurrenceSet decodes a YAML recurrence set document. Unknown keys are
// rejected. The result is not validated.
//
//	timezone: Europe/Paris
//	rules:
//	  - freq: monthly
//	    mode: by_day
//	    start: "2024-01-01"
//	    byweekday: [1MO]
//	    terminator: count
//	    count: 3
//	rdates:
//	  - date: "2024-01-15"
//	    exclude: true
func LoadRecurrenceSet(r io.Reader) (*RecurrenceSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var set RecurrenceSet
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode recurrence set: %w", err)
	}
	return &set, nil
}

// WriteRecurrenceSet encodes set as YAML.
func WriteRecurrenceSet(w io.Writer, set *RecurrenceSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("failed to encode recurrence set: %w", err)
	}
	return enc.Close()
}
