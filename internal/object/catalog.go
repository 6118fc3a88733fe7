package object

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/wgbh/bawstun/pkg/logger"
)

// CatalogStore keeps every object in a single JSON catalog file so that
// objects survive between runs without a database. The whole catalog is
// rewritten after every change.
type CatalogStore struct {
	mu       sync.Mutex
	filePath string
	content  map[string]json.RawMessage
}

// NewCatalogStore opens the catalog at the path provided. A missing catalog
// is treated as empty; a malformed one is an error.
func NewCatalogStore(path string) (*CatalogStore, error) {
	store := &CatalogStore{
		filePath: path,
		content:  make(map[string]json.RawMessage),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	log.Emit(logger.DEBUG, "Opened catalog %s holding %d objects\n", path, len(store.content))
	return store, nil
}

func (store *CatalogStore) Save(_ context.Context, obj *RepositoryObject) error {
	data, err := encode(obj)
	if err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	previous, existed := store.content[obj.ID]
	store.content[obj.ID] = data
	if err := store.save(); err != nil {
		if existed {
			store.content[obj.ID] = previous
		} else {
			delete(store.content, obj.ID)
		}
		return err
	}

	obj.markPersisted()
	return nil
}

func (store *CatalogStore) Get(_ context.Context, id string) (*RepositoryObject, error) {
	store.mu.Lock()
	data, ok := store.content[id]
	store.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	return decode(id, data)
}

func (store *CatalogStore) Delete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	data, ok := store.content[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	delete(store.content, id)
	if err := store.save(); err != nil {
		store.content[id] = data
		return err
	}

	return nil
}

func (store *CatalogStore) List(_ context.Context) ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	ids := make([]string, 0, len(store.content))
	for id := range store.content {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

func (store *CatalogStore) load() error {
	data, err := os.ReadFile(store.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read catalog %s: %w", store.filePath, err)
	}

	if err := json.Unmarshal(data, &store.content); err != nil {
		return fmt.Errorf("catalog %s is malformed: %w", store.filePath, err)
	}

	return nil
}

// save writes the catalog to a temporary file beside the catalog, and then
// renames it in to place. Callers must hold the lock.
func (store *CatalogStore) save() error {
	data, err := json.Marshal(store.content)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(store.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(store.filePath), ".catalog-*")
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	if err := os.Rename(tmp.Name(), store.filePath); err != nil {
		return fmt.Errorf("failed to replace catalog %s: %w", store.filePath, err)
	}

	return nil
}
