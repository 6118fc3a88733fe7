package internal

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/wgbh/bawstun/internal/characterize"
	"github.com/wgbh/bawstun/internal/config"
	"github.com/wgbh/bawstun/internal/database"
	"github.com/wgbh/bawstun/internal/edit"
	"github.com/wgbh/bawstun/internal/event"
	"github.com/wgbh/bawstun/internal/ingest"
	"github.com/wgbh/bawstun/internal/metrics"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/internal/storage"
	"github.com/wgbh/bawstun/pkg/logger"
	"github.com/wgbh/bawstun/pkg/worker"
)

var log = logger.Get("Core")

type (
	IngestService interface {
		IngestReader(ctx context.Context, obj *object.RepositoryObject, r io.Reader, filename string) error
		IngestFile(ctx context.Context, obj *object.RepositoryObject, sourcePath string, filename string) error
	}

	CharacterizationService interface {
		Characterize(ctx context.Context, obj *object.RepositoryObject) error
	}

	EditService interface {
		ApplyRaw(ctx context.Context, id string, raw map[string]any) (*object.RepositoryObject, error)
	}

	DatabaseServer interface {
		Connect(database.DatabaseConfig) error
		GetSqlxDb() *sqlx.DB
		Close() error
	}
)

// bawstunImpl is the top-level object of bawstun. It owns the stores,
// services and event bus, wiring them together using the configuration
// given.
type bawstunImpl struct {
	config   *config.Config
	eventBus event.EventCoordinator
	metrics  *metrics.Metrics
	activity *activityService
	db       DatabaseServer

	store                   object.Store
	ingestService           IngestService
	characterizationService CharacterizationService
	editService             EditService
}

// New constructs bawstun. If the database is enabled, a connection is
// established (and migrations executed) before returning, otherwise objects
// are kept in the catalog file named by the storage configuration.
func New(cfg *config.Config) (*bawstunImpl, error) {
	log.Emit(logger.DEBUG, "Bootstrapping bawstun services using config: %#v\n", cfg.Storage)
	if !cfg.Database.Enabled {
		log.Emit(logger.INFO, "Database disabled; objects are kept in catalog %s\n", cfg.Storage.Catalog)
		store, err := object.NewCatalogStore(cfg.Storage.Catalog)
		if err != nil {
			return nil, err
		}

		return newWithStore(cfg, store)
	}

	log.Emit(logger.NEW, "Connecting to database...\n")
	db := database.New()
	if err := db.Connect(cfg.Database); err != nil {
		return nil, err
	}

	core, err := newWithStore(cfg, object.NewPostgresStore(db.GetSqlxDb()))
	if err != nil {
		db.Close()
		return nil, err
	}

	core.db = db
	return core, nil
}

// newWithStore constructs bawstun around an existing store.
func newWithStore(cfg *config.Config, store object.Store) (*bawstunImpl, error) {
	core := &bawstunImpl{
		config:   cfg,
		eventBus: event.New(),
		metrics:  metrics.New(),
		store:    store,
	}
	core.activity = newActivityService(core.eventBus, core.flushMetrics)

	if err := core.initialiseServices(); err != nil {
		return nil, err
	}

	return core, nil
}

func (core *bawstunImpl) initialiseServices() error {
	locator, err := storage.NewLocator(core.config.Storage.BaseDir)
	if err != nil {
		return err
	}

	pipeline, err := characterize.New(
		core.config.FitsRunner(),
		core.config.ProbeRunner(),
		core.config.FieldMapping,
		core.store,
		core.eventBus,
		core.metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to construct characterization pipeline: %w", err)
	}

	core.ingestService = ingest.New(locator, core.store, core.eventBus, core.metrics)
	core.characterizationService = pipeline
	core.editService = edit.New(core.store, core.eventBus)

	return nil
}

// IngestPath mints a new object and moves the file at the path given in to
// storage. An empty filename keeps the source files name.
func (core *bawstunImpl) IngestPath(ctx context.Context, path string, filename string) (*object.RepositoryObject, error) {
	obj := object.New(object.NewIdentifier(core.config.Storage.IDNamespace))
	if err := core.ingestService.IngestFile(ctx, obj, path, filename); err != nil {
		return nil, err
	}

	return obj, nil
}

// IngestStream mints a new object and writes the content of the reader to
// storage under the filename given.
func (core *bawstunImpl) IngestStream(ctx context.Context, r io.Reader, filename string) (*object.RepositoryObject, error) {
	obj := object.New(object.NewIdentifier(core.config.Storage.IDNamespace))
	if err := core.ingestService.IngestReader(ctx, obj, r, filename); err != nil {
		return nil, err
	}

	return obj, nil
}

// Characterize characterizes the stored object with the identifier given.
func (core *bawstunImpl) Characterize(ctx context.Context, id string) (*object.RepositoryObject, error) {
	obj, err := core.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := core.characterizationService.Characterize(ctx, obj); err != nil {
		return nil, err
	}

	return obj, nil
}

// CharacterizeAll characterizes each of the objects given using a pool of
// workers bounded by the configured concurrency. The returned slice holds
// the error for each identifier, at the same index.
func (core *bawstunImpl) CharacterizeAll(ctx context.Context, ids []string) []error {
	return worker.Each("characterize", core.config.Concurrency, ids, func(id string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := core.Characterize(ctx, id)
		return err
	})
}

// Update applies a raw editor payload to the object with the identifier given.
func (core *bawstunImpl) Update(ctx context.Context, id string, raw map[string]any) (*object.RepositoryObject, error) {
	return core.editService.ApplyRaw(ctx, id, raw)
}

func (core *bawstunImpl) Object(ctx context.Context, id string) (*object.RepositoryObject, error) {
	return core.store.Get(ctx, id)
}

func (core *bawstunImpl) Objects(ctx context.Context) ([]string, error) {
	return core.store.List(ctx)
}

// Destroy removes the object and its stored content.
func (core *bawstunImpl) Destroy(ctx context.Context, id string) error {
	if err := object.Destroy(ctx, core.store, id); err != nil {
		return err
	}

	core.eventBus.Dispatch(event.OBJECT_DESTROYED, id)
	return nil
}

// Watch ingests and characterizes every file which settles inside the
// directory given (or the configured watch directory if empty), until the
// context is cancelled.
func (core *bawstunImpl) Watch(ctx context.Context, dir string) error {
	watchConfig := core.config.Watch
	if dir != "" {
		watchConfig.Dir = dir
	}

	watcher, err := ingest.NewWatcher(watchConfig, func(ctx context.Context, path string) error {
		obj, err := core.IngestPath(ctx, path, "")
		if err != nil {
			return err
		}

		// The file has left the watched directory, so a failure here is
		// recorded against the object rather than retried by the watcher.
		if _, err := core.Characterize(ctx, obj.ID); err != nil {
			log.Emit(logger.WARNING, "Object %s was ingested but could not be characterized: %v\n", obj.ID, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return watcher.Run(ctx)
}

// Activity returns the object events observed since bawstun was constructed.
func (core *bawstunImpl) Activity() []Activity {
	return core.activity.Activity()
}

// Close flushes the metrics and closes the database connection (if any).
func (core *bawstunImpl) Close() error {
	var errs []error
	if err := core.activity.Flush(); err != nil {
		errs = append(errs, err)
	}
	if core.db != nil {
		if err := core.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (core *bawstunImpl) flushMetrics() error {
	if core.config.Metrics.Textfile == "" {
		return nil
	}

	if err := core.metrics.WriteTextfile(core.config.Metrics.Textfile); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", core.config.Metrics.Textfile, err)
	}

	log.Emit(logger.DEBUG, "Metrics written to %s\n", core.config.Metrics.Textfile)
	return nil
}
