// Package watch streams record events to the terminal.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/flowlog/internal/filter"
	"github.com/dyluth/flowlog/pkg/datasvc"
)

// OutputFormat selects how events are printed.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// EventSource delivers record events. *datasvc.Subscription implements it.
type EventSource interface {
	Events() <-chan *datasvc.RecordEvent
	Errors() <-chan error
}

type formatter interface {
	FormatEvent(e *datasvc.RecordEvent) error
}

func newFormatter(format OutputFormat, w io.Writer) (formatter, error) {
	switch format {
	case OutputFormatDefault, "":
		return &defaultFormatter{writer: w, now: time.Now}, nil
	case OutputFormatJSON:
		return &jsonFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// StreamRecords prints events from src until ctx is cancelled or the
// source closes. Events whose record does not match filters are dropped.
// Subscription errors are logged and streaming continues.
func StreamRecords(ctx context.Context, src EventSource, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	f, err := newFormatter(format, w)
	if err != nil {
		return err
	}

	events, errs := src.Events(), src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[WARN] Record event error: %v", err)

		case e, ok := <-events:
			if !ok {
				return nil
			}
			if e.Record == nil || !filters.Matches(e.Record) {
				continue
			}
			if err := f.FormatEvent(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
	}
}

type defaultFormatter struct {
	writer io.Writer
	now    func() time.Time
}

func (f *defaultFormatter) FormatEvent(e *datasvc.RecordEvent) error {
	ts := f.now().Format("15:04:05")
	r := e.Record

	var line string
	switch e.Kind {
	case datasvc.RecordEventCreated:
		line = fmt.Sprintf("✨ Record created: title=%s, collection=%s, id=%s", r.Title, r.Collection, r.ID)
		if n := len(r.Dependencies); n > 0 {
			line += fmt.Sprintf(", deps=%d", n)
		}
	case datasvc.RecordEventUploaded:
		line = fmt.Sprintf("📦 File uploaded: file=%s, size=%d, id=%s", r.FileName, r.FileSize, r.ID)
	case datasvc.RecordEventUpdated:
		line = fmt.Sprintf("📝 Metadata updated: title=%s, id=%s", r.Title, r.ID)
	default:
		line = fmt.Sprintf("• %s: id=%s", e.Kind, r.ID)
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	return err
}

type jsonFormatter struct {
	writer io.Writer
}

type jsonEvent struct {
	Event      string `json:"event"`
	ID         string `json:"id"`
	Title      string `json:"title"`
	Collection string `json:"collection"`
	FileName   string `json:"file_name,omitempty"`
	Deps       int    `json:"deps"`
}

func (f *jsonFormatter) FormatEvent(e *datasvc.RecordEvent) error {
	data, err := json.Marshal(jsonEvent{
		Event:      "record_" + string(e.Kind),
		ID:         e.Record.ID,
		Title:      e.Record.Title,
		Collection: e.Record.Collection,
		FileName:   e.Record.FileName,
		Deps:       len(e.Record.Dependencies),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}
