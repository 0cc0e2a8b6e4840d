package predictionform

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormState holds the raw string value of every form field. Values are never coerced
// to numbers; the prediction endpoint receives them exactly as typed.
type FormState map[string]string

// NewFormState returns a state with every field present and at its default.
func NewFormState() FormState {
	state := make(FormState, len(fieldOrder))
	for _, name := range fieldOrder {
		state[name] = ""
	}
	state[FieldCity] = DefaultCity
	return state
}

// Get returns the value of a field.
func (s FormState) Get(name string) string {
	return s[name]
}

// With returns a copy of the state with one field replaced. The receiver is left
// untouched so that a state handed out to a reader never changes underneath it.
func (s FormState) With(name, value string) FormState {
	next := make(FormState, len(s))
	for k, v := range s {
		next[k] = v
	}
	next[name] = value
	return next
}

// Validate checks that the state carries exactly the known field set.
func (s FormState) Validate() error {
	var missing, unknown []string
	for _, name := range fieldOrder {
		if _, ok := s[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range s {
		if !IsField(name) {
			unknown = append(unknown, name)
		}
	}
	if len(missing) == 0 && len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	parts := make([]string, 0, 2)
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ","))
	}
	if len(unknown) > 0 {
		parts = append(parts, "unknown "+strings.Join(unknown, ","))
	}
	return fmt.Errorf("form state: %s", strings.Join(parts, "; "))
}

// MarshalJSON emits the fields in display order so request bodies are stable.
func (s FormState) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range fieldOrder {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		val, err := json.Marshal(s[name])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
