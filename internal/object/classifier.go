package object

import "strings"

type (
	// TypeClassifier decides whether an object is a video or an audio object.
	TypeClassifier interface {
		IsVideo(*RepositoryObject) bool
		IsAudio(*RepositoryObject) bool
	}

	// MimeClassifier classifies objects by the major type of their mime type.
	MimeClassifier struct{}

	// MediaClassifier classifies MXF objects by inspecting the tracks found
	// by the media probe, as the MXF container carries audio-only material
	// just as often as video. Every other object is classified by the
	// fallback classifier.
	MediaClassifier struct {
		fallback TypeClassifier
	}
)

func (MimeClassifier) IsVideo(obj *RepositoryObject) bool {
	return strings.HasPrefix(obj.MimeType(), "video/")
}

func (MimeClassifier) IsAudio(obj *RepositoryObject) bool {
	return strings.HasPrefix(obj.MimeType(), "audio/")
}

func NewMediaClassifier(fallback TypeClassifier) *MediaClassifier {
	if fallback == nil {
		fallback = MimeClassifier{}
	}

	return &MediaClassifier{fallback: fallback}
}

// IsVideo returns true for MXF objects containing at least one video track.
func (c *MediaClassifier) IsVideo(obj *RepositoryObject) bool {
	if obj.MimeType() == MXFMimeType {
		return hasVideoTrack(obj)
	}

	return c.fallback.IsVideo(obj)
}

// IsAudio returns true for MXF objects without any video track, including
// those for which the probe found no tracks at all.
func (c *MediaClassifier) IsAudio(obj *RepositoryObject) bool {
	if obj.MimeType() == MXFMimeType {
		return !hasVideoTrack(obj)
	}

	return c.fallback.IsAudio(obj)
}

func hasVideoTrack(obj *RepositoryObject) bool {
	for _, t := range obj.Characterization.Tracks {
		if t.CodecType == "video" {
			return true
		}
	}

	return false
}
