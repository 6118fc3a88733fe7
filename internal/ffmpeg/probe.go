package ffmpeg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
)

var ErrMalformedOutput = errors.New("ffprobe output is malformed")

// DefaultProbeArgs instruct ffprobe to describe the container
// and every stream as a single JSON document on stdout.
var DefaultProbeArgs = []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams"}

type (
	// Track is a single stream within a media container.
	Track struct {
		Index     int    `json:"index"`
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	}

	// Report is the media characterization of a single file.
	Report struct {
		FormatName string  `json:"format_name"`
		Duration   string  `json:"duration"`
		Tracks     []Track `json:"tracks"`
	}
)

// HasTrackOfType returns true if any track has the codec type provided ("video", "audio", ...).
func (r *Report) HasTrackOfType(codecType string) bool {
	for _, t := range r.Tracks {
		if t.CodecType == codecType {
			return true
		}
	}

	return false
}

// ParseProbe decodes the JSON document written by ffprobe when
// invoked with DefaultProbeArgs.
func ParseProbe(data []byte) (*Report, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedOutput)
	}

	var metadata ffmpeg.Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, err.Error())
	}

	return reportFromMetadata(&metadata), nil
}

func reportFromMetadata(metadata transcoder.Metadata) *Report {
	streams := metadata.GetStreams()
	report := &Report{
		FormatName: metadata.GetFormat().GetFormatName(),
		Duration:   metadata.GetFormat().GetDuration(),
		Tracks:     make([]Track, 0, len(streams)),
	}

	for _, stream := range streams {
		report.Tracks = append(report.Tracks, Track{
			Index:     stream.GetIndex(),
			CodecType: stream.GetCodecType(),
			CodecName: stream.GetCodecName(),
		})
	}

	return report
}
