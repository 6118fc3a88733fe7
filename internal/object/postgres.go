package object

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/wgbh/bawstun/internal/database"
	"github.com/wgbh/bawstun/internal/descmeta"
)

type (
	// objectModel is the row representation of an object; descriptive
	// metadata and the characterization record are stored as JSONB.
	objectModel struct {
		ID               string                                    `db:"id"`
		Label            string                                    `db:"label"`
		Filename         string                                    `db:"filename"`
		ContentLocator   string                                    `db:"content_locator"`
		ContentType      string                                    `db:"content_type"`
		Descriptive      database.JsonColumn[descmeta.Descriptive] `db:"descriptive"`
		Characterization database.JsonColumn[Characterization]     `db:"characterization"`
		CreatedAt        time.Time                                 `db:"created_at"`
		UpdatedAt        time.Time                                 `db:"updated_at"`
	}

	// PostgresStore persists objects in the repository_objects table.
	PostgresStore struct {
		db database.Queryable
	}
)

func NewPostgresStore(db database.Queryable) *PostgresStore {
	return &PostgresStore{db: db}
}

func (store *PostgresStore) Save(ctx context.Context, obj *RepositoryObject) error {
	now := time.Now().UTC()
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = now
	}
	obj.UpdatedAt = now

	query, args, err := squirrel.
		Insert("repository_objects").
		Columns("id", "label", "filename", "content_locator", "content_type", "descriptive", "characterization", "created_at", "updated_at").
		Values(
			obj.ID, obj.Label, obj.Content.Filename, obj.Content.Locator, obj.Content.ContentType,
			database.NewJsonColumn(obj.Descriptive), database.NewJsonColumn(obj.Characterization),
			obj.CreatedAt, obj.UpdatedAt,
		).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			label=EXCLUDED.label,
			filename=EXCLUDED.filename,
			content_locator=EXCLUDED.content_locator,
			content_type=EXCLUDED.content_type,
			descriptive=EXCLUDED.descriptive,
			characterization=EXCLUDED.characterization,
			updated_at=EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to construct save object query: %w", err)
	}

	if _, err := store.db.Exec(store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to save object %s: %w", obj.ID, err)
	}

	obj.markPersisted()
	return nil
}

func (store *PostgresStore) Get(ctx context.Context, id string) (*RepositoryObject, error) {
	query, args, err := selectObjectBuilder().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select object query: %w", err)
	}

	var model objectModel
	if err := store.db.Get(&model, store.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
		}

		return nil, fmt.Errorf("failed to find object %s: %w", id, err)
	}

	return objectModelToObject(&model), nil
}

func (store *PostgresStore) Delete(ctx context.Context, id string) error {
	query, args, err := squirrel.Delete("repository_objects").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to construct delete object query: %w", err)
	}

	res, err := store.db.Exec(store.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	return nil
}

func (store *PostgresStore) List(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.Select("id").From("repository_objects").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list objects query: %w", err)
	}

	ids := make([]string, 0)
	if err := store.db.Select(&ids, store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return ids, nil
}

func selectObjectBuilder() squirrel.SelectBuilder {
	return squirrel.
		Select("id", "label", "filename", "content_locator", "content_type", "descriptive", "characterization", "created_at", "updated_at").
		From("repository_objects")
}

func objectModelToObject(model *objectModel) *RepositoryObject {
	obj := &RepositoryObject{
		ID:    model.ID,
		Label: model.Label,
		Content: StoredFile{
			Filename:    model.Filename,
			Locator:     model.ContentLocator,
			ContentType: model.ContentType,
		},
		Descriptive:      model.Descriptive.Get(),
		Characterization: model.Characterization.Get(),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	obj.markPersisted()
	return obj
}
