package object_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/database"
	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/internal/ffmpeg"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/internal/testutil"
)

func Test_PostgresStore(t *testing.T) {
	config := testutil.ProvisionDatabase(t)

	db := database.New()
	require.NoError(t, db.Connect(config))
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	store := object.NewPostgresStore(db.GetSqlxDb())

	obj := object.New("sufia:pg123")
	obj.Label = "sample.mxf"
	obj.Content = object.StoredFile{Filename: "sample.mxf", Locator: "file:///srv/pg/12/3/sample.mxf", ContentType: "application/mxf"}
	require.NoError(t, obj.Descriptive.Apply(descmeta.Update{
		Title:     []descmeta.Title{{Value: "Frontline", TitleType: "Series"}},
		Publisher: []descmeta.Person{{Name: "WGBH", Role: "Distributor"}},
		Fields:    map[string][]string{"language": {"English"}},
	}))
	obj.Characterization = object.Characterization{
		FormatLabels: []string{"Material Exchange Format"},
		MimeType:     "application/mxf",
		Tracks:       []ffmpeg.Track{{Index: 0, CodecType: "video", CodecName: "mpeg2video"}},
	}

	require.NoError(t, store.Save(ctx, obj))
	assert.True(t, obj.IsPersisted())

	found, err := store.Get(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, obj.Label, found.Label)
	assert.Equal(t, obj.Content, found.Content)
	assert.Equal(t, obj.Descriptive.Title.Entries(), found.Descriptive.Title.Entries())
	assert.Equal(t, obj.Descriptive.Publisher.Entries(), found.Descriptive.Publisher.Entries())
	assert.Equal(t, []string{"English"}, found.Descriptive.Field("language"))
	assert.Equal(t, obj.Characterization.Tracks, found.Characterization.Tracks)
	assert.True(t, found.IsPersisted())

	// Saving again updates in place
	found.Label = "renamed.mxf"
	require.NoError(t, store.Save(ctx, found))
	again, err := store.Get(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.mxf", again.Label)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sufia:pg123"}, ids)

	require.NoError(t, store.Delete(ctx, obj.ID))
	_, err = store.Get(ctx, obj.ID)
	assert.ErrorIs(t, err, object.ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, obj.ID), object.ErrObjectNotFound)
}
