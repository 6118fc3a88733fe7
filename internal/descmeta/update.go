package descmeta

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var ErrMalformedUpdate = errors.New("update payload is malformed")

// Update is a batch of edits to descriptive metadata. A nil group slice means
// the update does not mention that group, whereas a non-nil (possibly empty)
// slice replaces the group entirely.
type Update struct {
	Title       []Title       `mapstructure:"title_attributes"`
	Creator     []Person      `mapstructure:"creator_attributes"`
	Contributor []Person      `mapstructure:"contributor_attributes"`
	Publisher   []Person      `mapstructure:"publisher_attributes"`
	Producer    []Person      `mapstructure:"producer_attributes"`
	Description []Description `mapstructure:"description_attributes"`
	Identifier  []Identifier  `mapstructure:"identifier_attributes"`
	Event       []Event       `mapstructure:"event_attributes"`

	Fields map[string][]string `mapstructure:"-"`
}

// Has returns true if the update carries replacement entries for the group kind.
func (u *Update) Has(kind Kind) bool {
	switch kind {
	case TitleKind:
		return u.Title != nil
	case CreatorKind:
		return u.Creator != nil
	case ContributorKind:
		return u.Contributor != nil
	case PublisherKind:
		return u.Publisher != nil
	case ProducerKind:
		return u.Producer != nil
	case DescriptionKind:
		return u.Description != nil
	case IdentifierKind:
		return u.Identifier != nil
	case EventKind:
		return u.Event != nil
	}

	return false
}

// Kinds returns the group kinds this update replaces.
func (u *Update) Kinds() []Kind {
	out := make([]Kind, 0, len(AllKinds))
	for _, k := range AllKinds {
		if u.Has(k) {
			out = append(out, k)
		}
	}

	return out
}

// DecodeUpdate converts a raw editor payload in to an Update. Nested group
// entries may be supplied either as a list, or as a map keyed by the entries
// position ("0", "1", ...) as produced by HTML form encoding; the latter is
// ordered numerically. Every other key must name a plain term, and its value
// must be a string or a list of strings.
func DecodeUpdate(raw map[string]any) (Update, error) {
	groups := make(map[string]any)
	fields := make(map[string][]string)
	for key, value := range raw {
		if strings.HasSuffix(key, "_attributes") {
			normalised, err := normaliseEntries(value)
			if err != nil {
				return Update{}, fmt.Errorf("%w: %s: %s", ErrMalformedUpdate, key, err.Error())
			}

			groups[key] = normalised
			continue
		}

		if !IsTerm(key) {
			return Update{}, fmt.Errorf("%w: %s", ErrUnknownSetter, key)
		}

		values, err := stringValues(value)
		if err != nil {
			return Update{}, fmt.Errorf("%w: %s: %s", ErrMalformedUpdate, key, err.Error())
		}
		fields[key] = values
	}

	var update Update
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &update,
	})
	if err != nil {
		return Update{}, err
	}

	if err := decoder.Decode(groups); err != nil {
		return Update{}, fmt.Errorf("%w: %s", ErrMalformedUpdate, err.Error())
	}

	if len(fields) > 0 {
		update.Fields = fields
	}

	return update, nil
}

// normaliseEntries accepts either a list of entries, or a position-keyed map
// of entries, and returns an ordered list. Nested "_attributes" keys inside
// each entry (such as an events locations) are normalised recursively.
func normaliseEntries(value any) ([]any, error) {
	var entries []any
	switch v := value.(type) {
	case []any:
		entries = v
	case []map[string]any:
		entries = make([]any, len(v))
		for i, e := range v {
			entries[i] = e
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			if _, err := strconv.Atoi(k); err != nil {
				return nil, fmt.Errorf("entry key '%s' is not a position", k)
			}
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})

		entries = make([]any, len(keys))
		for i, k := range keys {
			entries[i] = v[k]
		}
	default:
		return nil, fmt.Errorf("expected a list or position-keyed map of entries, got %T", value)
	}

	out := make([]any, len(entries))
	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d is not an object (got %T)", i, entry)
		}

		copied := make(map[string]any, len(fields))
		for k, fv := range fields {
			if strings.HasSuffix(k, "_attributes") {
				nested, err := normaliseEntries(fv)
				if err != nil {
					return nil, fmt.Errorf("entry %d: %s: %w", i, k, err)
				}
				copied[k] = nested
				continue
			}

			copied[k] = firstValue(fv)
		}
		out[i] = copied
	}

	return out, nil
}

// firstValue collapses single-element lists; editor forms sometimes submit
// nested subfields as one-element arrays.
func firstValue(v any) any {
	switch vv := v.(type) {
	case []any:
		if len(vv) == 1 {
			return vv[0]
		}
	case []string:
		if len(vv) == 1 {
			return vv[0]
		}
	}

	return v
}

func stringValues(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		if strs, ok := allStrings(v); ok {
			return strs, nil
		}
	}

	return nil, fmt.Errorf("expected a string or list of strings, got %T", value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
