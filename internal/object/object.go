// Package object defines the repository object (a stored file plus its
// descriptive metadata and characterization record) and the stores
// which persist it.
package object

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/internal/ffmpeg"
	"github.com/wgbh/bawstun/internal/storage"
)

const (
	DefaultNamespace = "sufia"

	MXFMimeType         = "application/mxf"
	OctetStreamMimeType = "application/octet-stream"
)

var ErrObjectNotFound = errors.New("repository object does not exist")

type (
	// StoredFile describes where the content of an object lives.
	StoredFile struct {
		Filename    string `json:"filename"`
		Locator     string `json:"locator"`
		ContentType string `json:"content_type"`
	}

	// Characterization holds the values extracted from an objects content
	// by external tools. It is kept apart from the descriptive metadata, and
	// is replaced wholesale each time the object is characterized.
	Characterization struct {
		FormatLabels    []string            `json:"format_labels"`
		MimeType        string              `json:"mime_type"`
		Terms           map[string][]string `json:"terms"`
		FormatName      string              `json:"format_name"`
		Duration        string              `json:"duration"`
		Tracks          []ffmpeg.Track      `json:"tracks"`
		CharacterizedAt *time.Time          `json:"characterized_at,omitempty"`
	}

	RepositoryObject struct {
		ID               string               `json:"id"`
		Label            string               `json:"label"`
		Content          StoredFile           `json:"content"`
		Descriptive      descmeta.Descriptive `json:"descriptive"`
		Characterization Characterization     `json:"characterization"`
		CreatedAt        time.Time            `json:"created_at"`
		UpdatedAt        time.Time            `json:"updated_at"`

		persisted bool
	}
)

// NewIdentifier mints a new object identifier within the namespace given.
func NewIdentifier(namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return fmt.Sprintf("%s:%s", namespace, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func New(id string) *RepositoryObject {
	return &RepositoryObject{ID: id}
}

// Noid returns the portion of the identifier after the namespace prefix,
// which is used as the objects storage key.
func (obj *RepositoryObject) Noid() string {
	if i := strings.LastIndex(obj.ID, ":"); i >= 0 {
		return obj.ID[i+1:]
	}

	return obj.ID
}

// IsPersisted returns true if the object has been saved to a store at least once.
func (obj *RepositoryObject) IsPersisted() bool { return obj.persisted }

func (obj *RepositoryObject) markPersisted() { obj.persisted = true }

// MimeType returns the characterized mime type of the object, falling
// back to the content type recorded when the content was stored.
func (obj *RepositoryObject) MimeType() string {
	if obj.Characterization.MimeType != "" {
		return obj.Characterization.MimeType
	}

	return obj.Content.ContentType
}

// ContentPath returns the local filesystem path of the objects content.
func (obj *RepositoryObject) ContentPath() (string, error) {
	if obj.Content.Locator == "" {
		return "", fmt.Errorf("object %s has no stored content", obj.ID)
	}

	return storage.PathFromURI(obj.Content.Locator)
}

func (obj *RepositoryObject) DisplayString() string {
	return obj.Descriptive.DisplayString(obj.Label)
}

func (obj *RepositoryObject) String() string {
	return fmt.Sprintf("RepositoryObject{id=%s label=%s mime=%s persisted=%v}", obj.ID, obj.Label, obj.MimeType(), obj.persisted)
}
