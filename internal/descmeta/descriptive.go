// Package descmeta models the descriptive metadata of a repository
// object: repeatable nested groups (titles, people, descriptions,
// identifiers, events) alongside plain multi-valued terms.
//
// Nested groups follow replace-on-update semantics. An update which names a
// group replaces every entry in it, and after any update entries which were
// left entirely blank by the editor are pruned.
package descmeta

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Kind string

const (
	TitleKind       Kind = "title"
	CreatorKind     Kind = "creator"
	ContributorKind Kind = "contributor"
	PublisherKind   Kind = "publisher"
	ProducerKind    Kind = "producer"
	DescriptionKind Kind = "description"
	IdentifierKind  Kind = "identifier"
	EventKind       Kind = "event"
)

// AllKinds lists every nested group kind, in display order.
var AllKinds = []Kind{
	TitleKind, CreatorKind, ContributorKind, PublisherKind, ProducerKind,
	DescriptionKind, IdentifierKind, EventKind,
}

// AttributesKey is the name of the update payload key which carries
// replacement entries for this kind of group (e.g. "title_attributes").
func (k Kind) AttributesKey() string { return string(k) + "_attributes" }

func (k Kind) String() string { return string(k) }

const (
	DefaultCreatorRole = "Uploader"
	DefaultTitleType   = "Program"

	ProgramTitleType = "Program"
	SeriesTitleType  = "Series"
	ItemTitleType    = "Item"
	EpisodeTitleType = "Episode"

	NolaCodeIdentifierType = "NOLA_CODE"
	TapeIdentifierType     = "ITEM_IDENTIFIER"
	BarcodeIdentifierType  = "PO_REFERENCE"
)

var (
	ErrUnknownSetter      = errors.New("no descriptive metadata setter with that name")
	ErrInvalidSetterInput = errors.New("setter input must be a string, a list of strings, or a list of structured entries")
)

type (
	Title struct {
		Value     string `json:"value" mapstructure:"value"`
		TitleType string `json:"title_type" mapstructure:"title_type"`
	}

	// Person is the entry type shared by the creator, contributor,
	// publisher and producer groups.
	Person struct {
		Name string `json:"name" mapstructure:"name"`
		Role string `json:"role" mapstructure:"role"`
	}

	Description struct {
		Value string `json:"value" mapstructure:"value"`
		Type  string `json:"type" mapstructure:"type"`
	}

	Identifier struct {
		Value          string `json:"value" mapstructure:"value"`
		IdentifierType string `json:"identifier_type" mapstructure:"identifier_type"`
	}

	Location struct {
		LocationName string `json:"location_name" mapstructure:"location_name"`
	}

	Event struct {
		EventType string     `json:"event_type" mapstructure:"event_type"`
		Date      string     `json:"date" mapstructure:"date"`
		Locations []Location `json:"has_location" mapstructure:"has_location_attributes"`
	}

	// Descriptive is the full descriptive metadata record of an object.
	Descriptive struct {
		Title       Group[Title]       `json:"title"`
		Creator     Group[Person]      `json:"creator"`
		Contributor Group[Person]      `json:"contributor"`
		Publisher   Group[Person]      `json:"publisher"`
		Producer    Group[Person]      `json:"producer"`
		Description Group[Description] `json:"description"`
		Identifier  Group[Identifier]  `json:"identifier"`
		Event       Group[Event]       `json:"event"`

		// Fields holds the plain multi-valued terms, keyed by term name.
		Fields map[string][]string `json:"fields"`
	}
)

// Terms are the plain (non-nested) multi-valued descriptive terms
// which can be assigned by an update or a field mapping.
var Terms = []string{
	"part_of", "date_created", "date_uploaded", "date_modified", "subject", "language",
	"rights", "resource_type", "tag", "related_url", "format", "based_near",
	"program_title", "series_title", "item_title", "episode_title",
	"event_location", "production_location", "filming_event", "production_event",
	"date_portrayed", "source", "source_reference", "rights_holder", "rights_summary",
	"release_date", "review_date", "aspect_ratio", "frame_rate", "cc",
	"physical_location", "notes", "originating_department", "metadata_filename",
}

func IsTerm(name string) bool { return slices.Contains(Terms, name) }

func (p Person) blank() bool      { return p.Name == "" && p.Role == "" }
func (d Description) blank() bool { return d.Value == "" && d.Type == "" }
func (t Title) blank() bool       { return t.Value == "" && t.TitleType == "" }
func (l Location) blank() bool    { return l.LocationName == "" }

// Field returns a copy of the values recorded for the term provided.
func (d *Descriptive) Field(name string) []string {
	return slices.Clone(d.Fields[name])
}

// SetField overwrites the values of a plain term. Empty strings are
// discarded, so assigning only blanks clears the term.
func (d *Descriptive) SetField(name string, values []string) error {
	if !IsTerm(name) {
		return fmt.Errorf("%w: %s", ErrUnknownSetter, name)
	}

	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}

	if d.Fields == nil {
		d.Fields = make(map[string][]string)
	}

	if len(kept) == 0 {
		delete(d.Fields, name)
		return nil
	}

	d.Fields[name] = kept
	return nil
}

// IdentifierValues returns the values of every identifier entry with the type given.
func (d *Descriptive) IdentifierValues(identifierType string) []string {
	out := make([]string, 0)
	for _, id := range d.Identifier.entries {
		if id.IdentifierType == identifierType {
			out = append(out, id.Value)
		}
	}

	return out
}

func (d *Descriptive) NolaCode() []string { return d.IdentifierValues(NolaCodeIdentifierType) }
func (d *Descriptive) TapeID() []string   { return d.IdentifierValues(TapeIdentifierType) }
func (d *Descriptive) Barcode() []string  { return d.IdentifierValues(BarcodeIdentifierType) }

// TitlesOfType returns the values of every title entry with the type given.
func (d *Descriptive) TitlesOfType(titleType string) []string {
	out := make([]string, 0)
	for _, t := range d.Title.entries {
		if t.TitleType == titleType {
			out = append(out, t.Value)
		}
	}

	return out
}

func (d *Descriptive) ProgramTitle() []string { return d.TitlesOfType(ProgramTitleType) }
func (d *Descriptive) SeriesTitle() []string  { return d.TitlesOfType(SeriesTitleType) }

// DisplayString joins the first program and series titles with a pipe. If
// the object has neither, the fallback (usually the objects label) is used.
func (d *Descriptive) DisplayString(fallback string) string {
	parts := make([]string, 0, 2)
	if program := d.ProgramTitle(); len(program) > 0 {
		parts = append(parts, program[0])
	}
	if series := d.SeriesTitle(); len(series) > 0 {
		parts = append(parts, series[0])
	}

	if val := strings.Join(parts, " | "); val != "" {
		return val
	}

	return fallback
}
