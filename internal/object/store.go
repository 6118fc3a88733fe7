package object

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/wgbh/bawstun/pkg/logger"
	"github.com/wgbh/bawstun/pkg/sync"
)

var log = logger.Get("ObjectStore")

// Store persists repository objects. Save marks the object as persisted.
type Store interface {
	Save(ctx context.Context, obj *RepositoryObject) error
	Get(ctx context.Context, id string) (*RepositoryObject, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// MemoryStore keeps objects in memory. Each object is deep-copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	objects sync.TypedSyncMap[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (store *MemoryStore) Save(_ context.Context, obj *RepositoryObject) error {
	data, err := encode(obj)
	if err != nil {
		return err
	}

	store.objects.Store(obj.ID, data)
	obj.markPersisted()
	return nil
}

func (store *MemoryStore) Get(_ context.Context, id string) (*RepositoryObject, error) {
	data, ok := store.objects.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	return decode(id, data)
}

func (store *MemoryStore) Delete(_ context.Context, id string) error {
	if _, ok := store.objects.LoadAndDelete(id); !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	return nil
}

func (store *MemoryStore) List(_ context.Context) ([]string, error) {
	ids := store.objects.Keys()
	sort.Strings(ids)
	return ids, nil
}

// Destroy removes the object from the store provided, along with its
// stored content file. Content which has already gone missing is ignored.
func Destroy(ctx context.Context, store Store, id string) error {
	obj, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	if obj.Content.Locator != "" {
		path, err := obj.ContentPath()
		if err != nil {
			return fmt.Errorf("cannot remove content of object %s: %w", id, err)
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove content of object %s: %w", id, err)
		}
		log.Emit(logger.REMOVE, "Removed content %s of object %s\n", path, id)
	}

	if err := store.Delete(ctx, id); err != nil {
		return err
	}

	log.Emit(logger.REMOVE, "Destroyed object %s\n", id)
	return nil
}

// encode stamps the object and encodes it for storage.
func encode(obj *RepositoryObject) ([]byte, error) {
	now := time.Now().UTC()
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = now
	}
	obj.UpdatedAt = now

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode object %s: %w", obj.ID, err)
	}

	return data, nil
}

func decode(id string, data []byte) (*RepositoryObject, error) {
	var obj RepositoryObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode object %s: %w", id, err)
	}

	obj.markPersisted()
	return &obj, nil
}
