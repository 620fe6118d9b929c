// Package inference evaluates stored checkpoints and writes the results
// back onto their records.
package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/dyluth/flowlog/pkg/datasvc"
)

// DefaultResultKey is the metadata key evaluation results are stored under.
const DefaultResultKey = "Inference Results"

const barTemplate pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{with string . "suffix"}} {{.}}{{end}}`

// DataService is the subset of the data service a Runner needs.
type DataService interface {
	GetRecord(ctx context.Context, recordID string) (*datasvc.Record, error)
	DownloadFile(ctx context.Context, recordID, destDir string) (datasvc.TaskStatus, error)
	UpdateMetadata(ctx context.Context, recordID string, patch map[string]any) error
}

// Model loads checkpoint files and evaluates the loaded weights.
type Model interface {
	Load(path string) error
	Evaluate(ctx context.Context) (map[string]any, error)
}

// Runner evaluates a sequence of checkpoint records.
type Runner struct {
	Svc   DataService
	Model Model

	// RootDir is searched recursively for checkpoint files before
	// downloading. SaveDir receives downloads.
	RootDir string
	SaveDir string

	// Skip is the number of leading records left unevaluated.
	Skip      int
	ResultKey string

	// Progress receives a progress bar when set.
	Progress io.Writer
}

// Result is the outcome for one record.
type Result struct {
	ID      string
	Path    string
	Metrics map[string]any
	Skipped bool
	Reason  string
}

// Run evaluates every record in ids after the first Skip, in order.
// Records whose file cannot be obtained are reported as skipped.
// Model and data-service errors stop the run.
func (r *Runner) Run(ctx context.Context, ids []string) ([]Result, error) {
	if r.Svc == nil || r.Model == nil {
		return nil, errors.New("inference runner requires a data service and a model")
	}

	var bar *pb.ProgressBar
	if r.Progress != nil {
		bar = barTemplate.New(len(ids))
		bar.SetWriter(r.Progress)
		bar.Set("prefix", "Evaluating:")
		bar.Start()
		defer bar.Finish()
	}

	results := make([]Result, 0, len(ids))
	for i, id := range ids {
		if bar != nil {
			bar.Increment()
		}
		if i < r.Skip {
			continue
		}

		res, err := r.evaluate(ctx, id)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) evaluate(ctx context.Context, id string) (Result, error) {
	res := Result{ID: id}

	rec, err := r.Svc.GetRecord(ctx, id)
	if err != nil {
		return res, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	if rec.FileName == "" {
		res.Skipped, res.Reason = true, "record has no file"
		log.Printf("[WARN] Skipping %s: %s", id, res.Reason)
		return res, nil
	}

	path, err := r.locate(ctx, rec)
	if err != nil {
		return res, err
	}
	if path == "" {
		res.Skipped, res.Reason = true, "file not available"
		log.Printf("[WARN] Skipping %s: %s could not be found or downloaded", id, rec.FileName)
		return res, nil
	}
	res.Path = path

	if err := r.Model.Load(path); err != nil {
		return res, fmt.Errorf("failed to load %s: %w", path, err)
	}
	metrics, err := r.Model.Evaluate(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to evaluate %s: %w", id, err)
	}
	res.Metrics = metrics

	key := r.ResultKey
	if key == "" {
		key = DefaultResultKey
	}
	if err := r.Svc.UpdateMetadata(ctx, id, map[string]any{key: metrics}); err != nil {
		return res, fmt.Errorf("failed to update record %s: %w", id, err)
	}

	log.Printf("[INFO] Evaluated %s (%s)", id, rec.Title)
	return res, nil
}

// locate returns a local copy of the record's file, or "" when there is none.
func (r *Runner) locate(ctx context.Context, rec *datasvc.Record) (string, error) {
	if r.RootDir != "" {
		path, err := SearchFile(r.RootDir, rec.FileName)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}

	if r.SaveDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(r.SaveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}

	status, err := r.Svc.DownloadFile(ctx, rec.ID, r.SaveDir)
	if err != nil {
		log.Printf("[WARN] Download of %s failed: %v", rec.ID, err)
		return "", nil
	}
	if status != datasvc.TaskStatusSucceeded {
		log.Printf("[WARN] Download of %s ended with status %s", rec.ID, status)
		return "", nil
	}
	return filepath.Join(r.SaveDir, rec.FileName), nil
}

// SearchFile walks root in lexical order and returns the first regular file
// named name, or "" when there is none.
func SearchFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", root, err)
	}
	return found, nil
}
