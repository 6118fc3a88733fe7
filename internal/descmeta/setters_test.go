package descmeta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/descmeta"
)

func Test_SetCreator_Scalar(t *testing.T) {
	d := descmeta.Descriptive{}
	require.NoError(t, d.SetCreator(descmeta.Scalar[descmeta.Person]("Samantha")))

	assert.Equal(t, []descmeta.Person{{Name: "Samantha", Role: "Uploader"}}, d.Creator.Entries())
}

func Test_SetCreator_ScalarAppends(t *testing.T) {
	d := descmeta.Descriptive{Creator: descmeta.NewGroup(descmeta.Person{Name: "Existing", Role: "Director"})}
	require.NoError(t, d.SetCreator(descmeta.ScalarList[descmeta.Person]([]string{"Alice", "Bob"})))

	assert.Equal(t, []descmeta.Person{
		{Name: "Existing", Role: "Director"},
		{Name: "Alice", Role: "Uploader"},
		{Name: "Bob", Role: "Uploader"},
	}, d.Creator.Entries())
}

func Test_SetCreator_LoneBlankIsIgnored(t *testing.T) {
	tests := []struct {
		summary string
		input   descmeta.Input[descmeta.Person]
	}{
		{"scalar", descmeta.Scalar[descmeta.Person]("")},
		{"scalar list", descmeta.ScalarList[descmeta.Person]([]string{""})},
		{"empty list", descmeta.ScalarList[descmeta.Person](nil)},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			d := descmeta.Descriptive{}
			require.NoError(t, d.SetCreator(tt.input))
			assert.Equal(t, 0, d.Creator.Len())
		})
	}
}

func Test_SetCreator_StructuredReplaces(t *testing.T) {
	d := descmeta.Descriptive{Creator: descmeta.NewGroup(descmeta.Person{Name: "Old", Role: "Uploader"})}
	entries := []descmeta.Person{{Name: "Frank", Role: "Producer"}, {Name: "Jane", Role: "Editor"}}

	require.NoError(t, d.SetCreator(descmeta.StructuredList(entries)))
	assert.Equal(t, entries, d.Creator.Entries())
}

func Test_SetTitle_Scalar(t *testing.T) {
	d := descmeta.Descriptive{}
	require.NoError(t, d.SetTitle(descmeta.Scalar[descmeta.Title]("A Great Title")))

	assert.Equal(t, []descmeta.Title{{Value: "A Great Title", TitleType: "Program"}}, d.Title.Entries())
	assert.Equal(t, []string{"A Great Title"}, d.ProgramTitle())
}

func Test_Setters_RejectInvalidInput(t *testing.T) {
	d := descmeta.Descriptive{}

	err := d.SetCreator(descmeta.Input[descmeta.Person]{})
	assert.ErrorIs(t, err, descmeta.ErrInvalidSetterInput)
	err = d.SetTitle(descmeta.Input[descmeta.Title]{})
	assert.ErrorIs(t, err, descmeta.ErrInvalidSetterInput)
	assert.Equal(t, 0, d.Creator.Len())
	assert.Equal(t, 0, d.Title.Len())
}

func Test_InputFrom(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		in, err := descmeta.InputFrom[descmeta.Person]("Samantha")
		require.NoError(t, err)

		d := descmeta.Descriptive{}
		require.NoError(t, d.SetCreator(in))
		assert.Equal(t, []descmeta.Person{{Name: "Samantha", Role: "Uploader"}}, d.Creator.Entries())
	})

	t.Run("list of strings", func(t *testing.T) {
		in, err := descmeta.InputFrom[descmeta.Title]([]any{"One", "Two"})
		require.NoError(t, err)

		d := descmeta.Descriptive{}
		require.NoError(t, d.SetTitle(in))
		assert.Equal(t, []string{"One", "Two"}, d.ProgramTitle())
	})

	t.Run("list of maps", func(t *testing.T) {
		in, err := descmeta.InputFrom[descmeta.Person]([]any{
			map[string]any{"name": "Frank", "role": "Producer"},
		})
		require.NoError(t, err)

		d := descmeta.Descriptive{Creator: descmeta.NewGroup(descmeta.Person{Name: "Old"})}
		require.NoError(t, d.SetCreator(in))
		assert.Equal(t, []descmeta.Person{{Name: "Frank", Role: "Producer"}}, d.Creator.Entries())
	})

	t.Run("map with unknown keys", func(t *testing.T) {
		_, err := descmeta.InputFrom[descmeta.Person]([]any{map[string]any{"nickname": "Frankie"}})
		assert.ErrorIs(t, err, descmeta.ErrInvalidSetterInput)
	})

	t.Run("number", func(t *testing.T) {
		_, err := descmeta.InputFrom[descmeta.Person](42)
		assert.ErrorIs(t, err, descmeta.ErrInvalidSetterInput)
	})
}

func Test_Set(t *testing.T) {
	d := descmeta.Descriptive{}

	require.NoError(t, d.Set("title", []string{"My file title"}))
	require.NoError(t, d.Set("creator", []string{"Samantha"}))
	require.NoError(t, d.Set("date_created", []string{"2016-01-01", ""}))

	assert.Equal(t, []descmeta.Title{{Value: "My file title", TitleType: "Program"}}, d.Title.Entries())
	assert.Equal(t, []descmeta.Person{{Name: "Samantha", Role: "Uploader"}}, d.Creator.Entries())
	assert.Equal(t, []string{"2016-01-01"}, d.Field("date_created"))

	assert.ErrorIs(t, d.Set("favourite_colour", []string{"blue"}), descmeta.ErrUnknownSetter)
	assert.Contains(t, descmeta.SetterNames(), "title")
	assert.Contains(t, descmeta.SetterNames(), "date_created")
}
