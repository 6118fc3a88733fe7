// Package characterize runs the external characterization tools against an
// objects stored content and merges their findings in to the object.
package characterize

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/wgbh/bawstun/internal/descmeta"
	"github.com/wgbh/bawstun/internal/event"
	"github.com/wgbh/bawstun/internal/ffmpeg"
	"github.com/wgbh/bawstun/internal/fits"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/internal/tool"
	"github.com/wgbh/bawstun/pkg/logger"
)

var log = logger.Get("Characterize")

// MXFFormatLabel is the format reported by the general characterization
// tool for MXF content, which it is unable to assign a specific mime type.
const MXFFormatLabel = "Material Exchange Format"

// DefaultFieldMapping copies the document title and author reported by the
// general characterization tool in to the descriptive metadata.
var DefaultFieldMapping = map[string]string{
	"file_title":  "title",
	"file_author": "creator",
}

type (
	toolRunner interface {
		ToolName() string
		Run(ctx context.Context, file string) ([]byte, error)
	}

	dataStore interface {
		Save(context.Context, *object.RepositoryObject) error
	}

	toolMetrics interface {
		ObserveTool(tool string, took time.Duration)
		ToolFailed(tool string, reason string)
	}

	// Pipeline characterizes objects using a general characterization tool
	// (FITS) and a media probe (ffprobe). Its field mapping is fixed when
	// the pipeline is constructed.
	Pipeline struct {
		general toolRunner
		probe   toolRunner
		mapping map[string]string
		store   dataStore
		events  event.EventDispatcher
		metrics toolMetrics
	}
)

// New constructs a pipeline. Every value in the mapping must name a known
// descriptive metadata setter, otherwise an error wrapping
// descmeta.ErrUnknownSetter is returned.
func New(general, probe toolRunner, mapping map[string]string, store dataStore, events event.EventDispatcher, metrics toolMetrics) (*Pipeline, error) {
	if mapping == nil {
		mapping = DefaultFieldMapping
	}

	for key, setter := range mapping {
		if _, ok := descmeta.LookupSetter(setter); !ok {
			return nil, fmt.Errorf("field mapping %s -> %s: %w", key, setter, descmeta.ErrUnknownSetter)
		}
	}

	return &Pipeline{
		general: general,
		probe:   probe,
		mapping: maps.Clone(mapping),
		store:   store,
		events:  events,
		metrics: metrics,
	}, nil
}

// Characterize runs both tools against the objects content. If either tool
// fails, the object is left untouched and the tool error is returned. On
// success the characterization record is replaced, mapped fields are copied
// in to the descriptive metadata, the stored filename is set to the objects
// label and, if the object has been persisted before, it is saved again.
func (p *Pipeline) Characterize(ctx context.Context, obj *object.RepositoryObject) error {
	path, err := obj.ContentPath()
	if err != nil {
		return err
	}

	generalOutput, err := p.run(ctx, p.general, path)
	if err != nil {
		return err
	}
	report, err := fits.Parse(generalOutput)
	if err != nil {
		return p.parseFailure(p.general, err)
	}

	probeOutput, err := p.run(ctx, p.probe, path)
	if err != nil {
		return err
	}
	probe, err := ffmpeg.ParseProbe(probeOutput)
	if err != nil {
		return p.parseFailure(p.probe, err)
	}

	now := time.Now().UTC()
	record := object.Characterization{
		FormatLabels:    report.FormatLabels,
		MimeType:        report.MimeType,
		Terms:           report.Terms,
		FormatName:      probe.FormatName,
		Duration:        probe.Duration,
		Tracks:          probe.Tracks,
		CharacterizedAt: &now,
	}
	FixMXF(&record)

	obj.Characterization = record
	for _, key := range p.mappedKeys() {
		if !report.Has(key) {
			continue
		}

		if err := obj.Descriptive.Set(p.mapping[key], report.Values(key)); err != nil {
			return fmt.Errorf("failed to copy %s to %s: %w", key, p.mapping[key], err)
		}
	}

	obj.Content.Filename = obj.Label
	log.Emit(logger.SUCCESS, "Characterized %s as %s (%d tracks)\n", obj.ID, obj.MimeType(), len(record.Tracks))

	if !obj.IsPersisted() {
		log.Emit(logger.DEBUG, "Object %s has never been saved; skipping persist after characterization\n", obj.ID)
		return nil
	}

	if err := p.store.Save(ctx, obj); err != nil {
		return fmt.Errorf("failed to persist characterization of %s: %w", obj.ID, err)
	}
	if p.events != nil {
		p.events.Dispatch(event.OBJECT_CHARACTERIZED, obj.ID)
	}

	return nil
}

// mappedKeys returns the tool terms of the field mapping, sorted.
func (p *Pipeline) mappedKeys() []string {
	keys := make([]string, 0, len(p.mapping))
	for k := range p.mapping {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

func (p *Pipeline) run(ctx context.Context, runner toolRunner, path string) ([]byte, error) {
	start := time.Now()
	out, err := runner.Run(ctx, path)
	if p.metrics != nil {
		p.metrics.ObserveTool(runner.ToolName(), time.Since(start))
		if err != nil {
			p.metrics.ToolFailed(runner.ToolName(), tool.FailureReason(err))
		}
	}

	if err != nil {
		log.Emit(logger.ERROR, "Characterization tool %s failed for %s: %v\n", runner.ToolName(), path, err)
		return nil, err
	}

	return out, nil
}

// parseFailure reports malformed tool output as a failed invocation of that tool.
func (p *Pipeline) parseFailure(runner toolRunner, err error) error {
	if p.metrics != nil {
		p.metrics.ToolFailed(runner.ToolName(), "parse")
	}

	return &tool.InvocationError{Tool: runner.ToolName(), Err: err}
}

// FixMXF corrects the mime type of MXF content, which the general tool
// reports as application/octet-stream. The mime type is only changed when
// the tool reported exactly one format label, and that label is MXF.
func FixMXF(record *object.Characterization) {
	if record.MimeType != object.OctetStreamMimeType {
		return
	}
	if len(record.FormatLabels) != 1 || record.FormatLabels[0] != MXFFormatLabel {
		return
	}

	record.MimeType = object.MXFMimeType
	if _, ok := record.Terms[fits.MimeTypeTerm]; ok {
		record.Terms[fits.MimeTypeTerm] = []string{object.MXFMimeType}
	}
}
