package descmeta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/pkg/logger"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

func Test_Apply_ReplacesTitleGroup(t *testing.T) {
	original := []descmeta.Title{
		{Value: "One", TitleType: "Program"},
		{Value: "Two", TitleType: "Series"},
		{Value: "Three", TitleType: "Item"},
	}
	d := descmeta.Descriptive{Title: descmeta.NewGroup(original...)}

	replacement := []descmeta.Title{
		{Value: "Frontline", TitleType: "Series"},
		{Value: "How did this happen?", TitleType: "Program"},
	}
	require.NoError(t, d.Apply(descmeta.Update{Title: replacement}))

	assert.Equal(t, replacement, d.Title.Entries())
	for _, old := range original {
		assert.NotContains(t, d.Title.Entries(), old)
	}
}

func Test_Apply_LeavesUnmentionedGroupsAlone(t *testing.T) {
	creators := []descmeta.Person{{Name: "Samantha", Role: "Uploader"}}
	d := descmeta.Descriptive{
		Creator: descmeta.NewGroup(creators...),
		Title:   descmeta.NewGroup(descmeta.Title{Value: "A good day", TitleType: "Program"}),
	}

	require.NoError(t, d.Apply(descmeta.Update{
		Title: []descmeta.Title{{Value: "Another day", TitleType: "Program"}},
	}))

	assert.Equal(t, creators, d.Creator.Entries())
	assert.Equal(t, []descmeta.Title{{Value: "Another day", TitleType: "Program"}}, d.Title.Entries())
}

func Test_Apply_EmptyReplacementClearsGroup(t *testing.T) {
	d := descmeta.Descriptive{Contributor: descmeta.NewGroup(descmeta.Person{Name: "Dave", Role: "Director"})}

	require.NoError(t, d.Apply(descmeta.Update{Contributor: []descmeta.Person{}}))
	assert.Equal(t, 0, d.Contributor.Len())
}

func Test_Apply_RemovesBlankAssertions(t *testing.T) {
	d := descmeta.Descriptive{}
	d.InitializeFields()

	err := d.Apply(descmeta.Update{
		Publisher: []descmeta.Person{
			{Name: "", Role: ""},
			{Name: "Test", Role: ""},
			{Name: "", Role: "Foo"},
			{Name: "", Role: ""},
		},
		Description: []descmeta.Description{
			{Value: "", Type: ""},
			{Value: "Justin's desc", Type: ""},
			{Value: "", Type: "valuable"},
		},
		Fields: map[string][]string{
			"event_location":      {"", "Brazil"},
			"production_location": {"", "Cuba"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []descmeta.Person{{Name: "Test"}, {Role: "Foo"}}, d.Publisher.Entries())
	assert.Equal(t, []descmeta.Description{{Value: "Justin's desc"}, {Type: "valuable"}}, d.Description.Entries())
	assert.Equal(t, []string{"Brazil"}, d.Field("event_location"))
	assert.Equal(t, []string{"Cuba"}, d.Field("production_location"))

	// Placeholders the editor never touched are pruned too
	assert.Equal(t, 0, d.Creator.Len())
	assert.Equal(t, 0, d.Contributor.Len())
	// ...but identifiers are not subject to pruning
	assert.Equal(t, 1, d.Identifier.Len())
}

func Test_RemoveBlankAssertions_Matrix(t *testing.T) {
	tests := []struct {
		summary string
		person  descmeta.Person
		kept    bool
	}{
		{"all blank", descmeta.Person{}, false},
		{"name only", descmeta.Person{Name: "Test"}, true},
		{"role only", descmeta.Person{Role: "Foo"}, true},
		{"both", descmeta.Person{Name: "Frank", Role: "Producer"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			d := descmeta.Descriptive{
				Publisher:   descmeta.NewGroup(tt.person),
				Contributor: descmeta.NewGroup(tt.person),
				Creator:     descmeta.NewGroup(tt.person),
			}
			d.RemoveBlankAssertions()

			expected := 0
			if tt.kept {
				expected = 1
			}
			assert.Equal(t, expected, d.Publisher.Len())
			assert.Equal(t, expected, d.Contributor.Len())
			assert.Equal(t, expected, d.Creator.Len())
		})
	}
}

func Test_RemoveBlankAssertions_TitlesAndEventLocations(t *testing.T) {
	d := descmeta.Descriptive{
		Title: descmeta.NewGroup(
			descmeta.Title{},
			descmeta.Title{TitleType: "Series"},
		),
		Event: descmeta.NewGroup(descmeta.Event{
			EventType: "filming",
			Locations: []descmeta.Location{{LocationName: ""}, {LocationName: "Boston"}},
		}),
	}

	d.RemoveBlankAssertions()

	assert.Equal(t, []descmeta.Title{{TitleType: "Series"}}, d.Title.Entries())
	require.Equal(t, 1, d.Event.Len())
	assert.Equal(t, []descmeta.Location{{LocationName: "Boston"}}, d.Event.At(0).Locations)
}

func Test_Apply_UnknownTermChangesNothing(t *testing.T) {
	d := descmeta.Descriptive{Title: descmeta.NewGroup(descmeta.Title{Value: "Keep me", TitleType: "Program"})}

	err := d.Apply(descmeta.Update{
		Title:  []descmeta.Title{{Value: "Replacement", TitleType: "Program"}},
		Fields: map[string][]string{"not_a_term": {"x"}},
	})
	assert.ErrorIs(t, err, descmeta.ErrUnknownSetter)
	assert.Equal(t, []descmeta.Title{{Value: "Keep me", TitleType: "Program"}}, d.Title.Entries())
}

func Test_IdentifierAccessors(t *testing.T) {
	d := descmeta.Descriptive{}
	require.NoError(t, d.Apply(descmeta.Update{
		Identifier: []descmeta.Identifier{
			{Value: "123-456789", IdentifierType: "NOLA_CODE"},
			{Value: "777", IdentifierType: "ITEM_IDENTIFIER"},
			{Value: "929343", IdentifierType: "PO_REFERENCE"},
		},
	}))

	assert.Equal(t, []string{"123-456789"}, d.NolaCode())
	assert.Equal(t, []string{"777"}, d.TapeID())
	assert.Equal(t, []string{"929343"}, d.Barcode())
}

func Test_DisplayString(t *testing.T) {
	d := descmeta.Descriptive{}
	assert.Equal(t, "world.png", d.DisplayString("world.png"))

	d.Title.Build(descmeta.Title{Value: "Frontline", TitleType: "Series"})
	assert.Equal(t, "Frontline", d.DisplayString("world.png"))

	d.Title.Build(descmeta.Title{Value: "How did this happen?", TitleType: "Program"})
	assert.Equal(t, "How did this happen? | Frontline", d.DisplayString("world.png"))
}

func Test_TermsForEditing(t *testing.T) {
	editing := descmeta.TermsForEditing()
	assert.NotContains(t, editing, "part_of")
	assert.NotContains(t, editing, "date_modified")
	assert.NotContains(t, editing, "date_uploaded")
	assert.Contains(t, editing, "creator")
	assert.Len(t, editing, len(descmeta.TermsForDisplay())-3)
}
