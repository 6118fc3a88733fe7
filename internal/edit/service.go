// Package edit applies descriptive metadata edits to stored objects.
package edit

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/internal/event"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/pkg/logger"
)

var log = logger.Get("EditServ")

type (
	dataStore interface {
		Get(context.Context, string) (*object.RepositoryObject, error)
		Save(context.Context, *object.RepositoryObject) error
	}

	editService struct {
		dataStore dataStore
		events    event.EventDispatcher
		validate  *validator.Validate
	}

	// entryLimits bounds the size of an update, guarding the
	// store against runaway editor submissions.
	entryLimits struct {
		Title       []descmeta.Title       `validate:"max=100"`
		Creator     []descmeta.Person      `validate:"max=100"`
		Contributor []descmeta.Person      `validate:"max=100"`
		Publisher   []descmeta.Person      `validate:"max=100"`
		Producer    []descmeta.Person      `validate:"max=100"`
		Description []descmeta.Description `validate:"max=100"`
		Identifier  []descmeta.Identifier  `validate:"max=100"`
		Event       []descmeta.Event       `validate:"max=100"`
	}
)

func New(store dataStore, events event.EventDispatcher) *editService {
	return &editService{dataStore: store, events: events, validate: validator.New()}
}

// ApplyRaw decodes a raw editor payload and applies it to the object with
// the identifier given.
func (service *editService) ApplyRaw(ctx context.Context, id string, raw map[string]any) (*object.RepositoryObject, error) {
	update, err := descmeta.DecodeUpdate(raw)
	if err != nil {
		return nil, err
	}

	return service.Apply(ctx, id, update)
}

// Apply loads the object, replaces every nested group named by the update,
// assigns plain terms, prunes blank entries, and persists the result. The
// object is not saved if the update is invalid.
func (service *editService) Apply(ctx context.Context, id string, update descmeta.Update) (*object.RepositoryObject, error) {
	if err := service.validate.Struct(limitsOf(&update)); err != nil {
		return nil, fmt.Errorf("%w: %s", descmeta.ErrMalformedUpdate, err.Error())
	}

	obj, err := service.dataStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := obj.Descriptive.Apply(update); err != nil {
		return nil, err
	}

	if err := service.dataStore.Save(ctx, obj); err != nil {
		return nil, fmt.Errorf("failed to persist update to object %s: %w", id, err)
	}

	log.Emit(logger.SUCCESS, "Applied update to %s (groups replaced: %v, terms: %d)\n", id, update.Kinds(), len(update.Fields))
	if service.events != nil {
		service.events.Dispatch(event.OBJECT_UPDATED, obj.ID)
	}

	return obj, nil
}

func limitsOf(update *descmeta.Update) *entryLimits {
	return &entryLimits{
		Title:       update.Title,
		Creator:     update.Creator,
		Contributor: update.Contributor,
		Publisher:   update.Publisher,
		Producer:    update.Producer,
		Description: update.Description,
		Identifier:  update.Identifier,
		Event:       update.Event,
	}
}
