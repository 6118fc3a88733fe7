// Package ingest places file content in to managed storage and attaches
// it to a repository object.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/internal/event"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/internal/storage"
	"github.com/wgbh/bawstun/pkg/logger"
)

var log = logger.Get("IngestServ")

var ErrInvalidFilename = errors.New("ingest filename must not be empty")

type (
	Source int

	dataStore interface {
		Save(context.Context, *object.RepositoryObject) error
	}

	ingestMetrics interface {
		Ingested(source string)
	}

	// ingestService is responsible for placing content in to storage:
	// - the destination is resolved from the objects identifier,
	// - the content is written (stream source) or moved (path source),
	// - the content locator, content type, label and default title are set,
	// - the object is persisted and an event is dispatched.
	ingestService struct {
		locator   *storage.Locator
		dataStore dataStore
		events    event.EventDispatcher
		metrics   ingestMetrics
	}
)

const (
	STREAM Source = iota
	PATH
)

func (s Source) String() string {
	switch s {
	case STREAM:
		return "stream"
	case PATH:
		return "path"
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}

func New(locator *storage.Locator, store dataStore, events event.EventDispatcher, metrics ingestMetrics) *ingestService {
	return &ingestService{locator: locator, dataStore: store, events: events, metrics: metrics}
}

// IngestReader reads the content fully from the reader provided and writes it
// to the objects storage directory under the filename given. An existing file
// with the same name is overwritten.
func (service *ingestService) IngestReader(ctx context.Context, obj *object.RepositoryObject, r io.Reader, filename string) error {
	dest, err := service.destination(obj, filename)
	if err != nil {
		return err
	}

	if err := writeFile(dest, r); err != nil {
		return err
	}

	return service.attach(ctx, obj, dest, STREAM)
}

// IngestFile moves the file at sourcePath in to the objects storage
// directory. If filename is empty, the base name of the source path is used.
// Once complete, the source path no longer exists.
func (service *ingestService) IngestFile(ctx context.Context, obj *object.RepositoryObject, sourcePath string, filename string) error {
	if filename == "" {
		filename = filepath.Base(sourcePath)
	}

	dest, err := service.destination(obj, filename)
	if err != nil {
		return err
	}

	if err := moveFile(sourcePath, dest); err != nil {
		return err
	}

	return service.attach(ctx, obj, dest, PATH)
}

func (service *ingestService) destination(obj *object.RepositoryObject, filename string) (string, error) {
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", ErrInvalidFilename
	}

	dest, err := service.locator.FilePath(obj.Noid(), filename)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage location for object %s: %w", obj.ID, err)
	}

	return dest, nil
}

func (service *ingestService) attach(ctx context.Context, obj *object.RepositoryObject, dest string, source Source) error {
	filename := filepath.Base(dest)
	obj.Content = object.StoredFile{
		Filename:    filename,
		Locator:     storage.FileURI(dest),
		ContentType: storage.ContentTypeFor(filename),
	}

	defaultTitle := descmeta.Title{Value: filename, TitleType: descmeta.DefaultTitleType}
	if !slices.Contains(obj.Descriptive.Title.Entries(), defaultTitle) {
		obj.Descriptive.Title.Build(defaultTitle)
	}
	obj.Label = filename

	if err := service.dataStore.Save(ctx, obj); err != nil {
		return fmt.Errorf("failed to persist object %s after ingest: %w", obj.ID, err)
	}

	log.Emit(logger.SUCCESS, "Ingested %s (%s) for object %s from %s\n", filename, obj.Content.ContentType, obj.ID, source)
	if service.metrics != nil {
		service.metrics.Ingested(source.String())
	}
	if service.events != nil {
		service.events.Dispatch(event.OBJECT_INGESTED, obj.ID)
	}

	return nil
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return f.Close()
}

// moveFile renames src to dest, falling back to a copy and
// remove when the two paths are on different filesystems.
func moveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s to %s: %w", src, dest, err)
	}

	log.Emit(logger.DEBUG, "Cannot rename %s across filesystems, copying instead\n", src)
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := writeFile(dest, in); err != nil {
		return err
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", src, err)
	}

	return nil
}
