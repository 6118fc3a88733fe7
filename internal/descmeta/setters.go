package descmeta

import (
	"fmt"
	"slices"
	"sort"

	"github.com/mitchellh/mapstructure"
)

type inputVariant int

const (
	invalidInput inputVariant = iota
	scalarInput
	scalarListInput
	structuredListInput
)

func (v inputVariant) String() string {
	switch v {
	case scalarInput:
		return fmt.Sprintf("SCALAR[%d]", v)
	case scalarListInput:
		return fmt.Sprintf("SCALAR_LIST[%d]", v)
	case structuredListInput:
		return fmt.Sprintf("STRUCTURED_LIST[%d]", v)
	default:
		return fmt.Sprintf("INVALID[%d]", v)
	}
}

// Input is the argument accepted by the creator and title setters. Older
// callers provide a single string or a list of strings, whereas the
// metadata editor provides fully structured entries. Exactly one variant
// is populated; the zero value is invalid and is rejected by the setters.
type Input[T any] struct {
	variant inputVariant
	values  []string
	entries []T
}

func Scalar[T any](value string) Input[T] {
	return Input[T]{variant: scalarInput, values: []string{value}}
}

func ScalarList[T any](values []string) Input[T] {
	return Input[T]{variant: scalarListInput, values: slices.Clone(values)}
}

func StructuredList[T any](entries []T) Input[T] {
	return Input[T]{variant: structuredListInput, entries: slices.Clone(entries)}
}

func (in Input[T]) String() string {
	return fmt.Sprintf("Input{variant=%s values=%v entries=%d}", in.variant, in.values, len(in.entries))
}

// InputFrom converts a dynamically typed value (as found in decoded payloads)
// in to an Input. Strings and string lists become scalar variants, lists of
// entries (or of maps which decode in to entries) become the structured variant.
// Any other value is rejected with ErrInvalidSetterInput.
func InputFrom[T any](value any) (Input[T], error) {
	switch v := value.(type) {
	case string:
		return Scalar[T](v), nil
	case []string:
		return ScalarList[T](v), nil
	case []T:
		return StructuredList(v), nil
	case []any:
		if len(v) == 0 {
			return ScalarList[T](nil), nil
		}

		if strs, ok := allStrings(v); ok {
			return ScalarList[T](strs), nil
		}

		var entries []T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ErrorUnused: true, Result: &entries})
		if err != nil {
			return Input[T]{}, err
		}
		if err := decoder.Decode(v); err != nil {
			return Input[T]{}, fmt.Errorf("%w: %s", ErrInvalidSetterInput, err.Error())
		}

		return StructuredList(entries), nil
	}

	return Input[T]{}, fmt.Errorf("%w: you provided %#v", ErrInvalidSetterInput, value)
}

func allStrings(values []any) ([]string, bool) {
	out := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}

	return out, true
}

// setScalarOrStructured implements the shared behaviour of the creator and
// title setters. Scalar inputs append one new entry per string (built using
// the function provided), except that a lone empty string is ignored.
// Structured input replaces the group wholesale.
func setScalarOrStructured[T any](group *Group[T], in Input[T], build func(string) T) error {
	switch in.variant {
	case scalarInput, scalarListInput:
		if len(in.values) == 1 && in.values[0] == "" {
			return nil
		}

		for _, v := range in.values {
			group.Build(build(v))
		}

		return nil
	case structuredListInput:
		group.Replace(in.entries)
		return nil
	}

	return fmt.Errorf("%w: you provided %s", ErrInvalidSetterInput, in)
}

// SetCreator assigns creators. Plain names are recorded with the
// DefaultCreatorRole.
func (d *Descriptive) SetCreator(in Input[Person]) error {
	return setScalarOrStructured(&d.Creator, in, func(name string) Person {
		return Person{Name: name, Role: DefaultCreatorRole}
	})
}

// SetTitle assigns titles. Plain values are recorded with the
// DefaultTitleType.
func (d *Descriptive) SetTitle(in Input[Title]) error {
	return setScalarOrStructured(&d.Title, in, func(value string) Title {
		return Title{Value: value, TitleType: DefaultTitleType}
	})
}

// Setter assigns extracted values to a descriptive field.
type Setter func(d *Descriptive, values []string) error

var nestedSetters = map[string]Setter{
	"title":   func(d *Descriptive, values []string) error { return d.SetTitle(ScalarList[Title](values)) },
	"creator": func(d *Descriptive, values []string) error { return d.SetCreator(ScalarList[Person](values)) },
}

// LookupSetter finds the setter with the name given. Nested groups
// which accept scalar values ("title", "creator") are checked first,
// then the plain terms.
func LookupSetter(name string) (Setter, bool) {
	if s, ok := nestedSetters[name]; ok {
		return s, true
	}

	if IsTerm(name) {
		return func(d *Descriptive, values []string) error { return d.SetField(name, values) }, true
	}

	return nil, false
}

// SetterNames returns the name of every known setter, sorted.
func SetterNames() []string {
	names := make([]string, 0, len(nestedSetters)+len(Terms))
	for k := range nestedSetters {
		names = append(names, k)
	}
	names = append(names, Terms...)
	sort.Strings(names)

	return names
}

// Set invokes the setter with the name given.
func (d *Descriptive) Set(name string, values []string) error {
	setter, ok := LookupSetter(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetter, name)
	}

	return setter(d, values)
}
