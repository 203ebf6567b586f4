package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ClaimDraft is the in-progress answer set of a wizard session, keyed by section name.
// Section values are JSON-shaped: maps, slices and scalars.
type ClaimDraft map[string]any

// Patch is a shallow-merge update: every provided section replaces the stored one.
type Patch map[string]any

// Clone returns a deep copy of the draft.
func (d ClaimDraft) Clone() ClaimDraft {
	if d == nil {
		return ClaimDraft{}
	}
	out := make(ClaimDraft, len(d))
	for k, v := range d {
		out[k] = DeepCopy(v)
	}
	return out
}

// Has reports whether a section is present.
func (d ClaimDraft) Has(section string) bool {
	_, ok := d[section]
	return ok
}

// Decode copies a section into a typed view such as *InsuredDetails.
// A missing section leaves out untouched and returns nil.
func (d ClaimDraft) Decode(section string, out any) error {
	raw, ok := d[section]
	if !ok || raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode section %q: %w", section, err)
	}
	return nil
}

// NormalizeValue converts a section value into its JSON-shaped form so that
// drafts compare, copy and persist the same way regardless of how callers built them.
func NormalizeValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64, map[string]any, []any:
		return DeepCopy(v), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("section value is not serializable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeepCopy copies nested maps and slices. Other values are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	default:
		return v
	}
}
