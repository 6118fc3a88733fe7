package object_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/internal/object"
	"gotest.tools/v3/fs"
)

func Test_CatalogStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := fs.NewDir(t, "bawstun-catalog").Join("nested", "catalog.json")

	store, err := object.NewCatalogStore(path)
	require.NoError(t, err)

	obj := object.New("sufia:cat1")
	obj.Label = "sample.mxf"
	obj.Descriptive.Title.Build(descmeta.Title{Value: "Frontline", TitleType: "Series"})
	require.NoError(t, store.Save(ctx, obj))
	assert.True(t, obj.IsPersisted())
	require.NoError(t, store.Save(ctx, object.New("sufia:cat0")))

	reopened, err := object.NewCatalogStore(path)
	require.NoError(t, err)

	ids, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sufia:cat0", "sufia:cat1"}, ids)

	loaded, err := reopened.Get(ctx, "sufia:cat1")
	require.NoError(t, err)
	assert.True(t, loaded.IsPersisted())
	assert.Equal(t, "sample.mxf", loaded.Label)
	assert.Equal(t, obj.Descriptive.Title.Entries(), loaded.Descriptive.Title.Entries())

	require.NoError(t, reopened.Delete(ctx, "sufia:cat1"))
	assert.ErrorIs(t, reopened.Delete(ctx, "sufia:cat1"), object.ErrObjectNotFound)

	again, err := object.NewCatalogStore(path)
	require.NoError(t, err)
	_, err = again.Get(ctx, "sufia:cat1")
	assert.ErrorIs(t, err, object.ErrObjectNotFound)
}

func Test_CatalogStore_MissingCatalogIsEmpty(t *testing.T) {
	store, err := object.NewCatalogStore(fs.NewDir(t, "bawstun-catalog").Join("catalog.json"))
	require.NoError(t, err)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func Test_CatalogStore_MalformedCatalog(t *testing.T) {
	dir := fs.NewDir(t, "bawstun-catalog", fs.WithFile("catalog.json", "{not json"))

	_, err := object.NewCatalogStore(dir.Join("catalog.json"))
	assert.ErrorContains(t, err, "malformed")

	data, err := os.ReadFile(dir.Join("catalog.json"))
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}
