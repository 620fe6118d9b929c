// Package checkpoint records training checkpoints with the data service.
//
// A Logger resolves the training notebook once at construction, then every
// Save writes the optional local artefact, assembles the metadata record and
// creates a checkpoint record derived from the notebook, the previous
// checkpoint and the datasets.
package checkpoint

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/dyluth/flowlog/internal/access"
	"github.com/dyluth/flowlog/internal/classify"
	"github.com/dyluth/flowlog/internal/notebook"
	"github.com/dyluth/flowlog/internal/record"
	"github.com/dyluth/flowlog/internal/serialize"
	"github.com/dyluth/flowlog/pkg/datasvc"
)

// ErrConfiguration marks a Logger built or used with missing or invalid
// inputs. It is the same sentinel the metadata assembler returns.
var ErrConfiguration = record.ErrConfiguration

// State is the lifecycle state of a Logger.
type State int

const (
	Uninitialized State = iota
	NotebookResolved
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case NotebookResolved:
		return "notebook-resolved"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DataService is the subset of the data service a Logger talks to.
// *datasvc.Client implements it.
type DataService interface {
	FindRecordWithKey(ctx context.Context, collection, title, key string) (*datasvc.Record, error)
	CreateRecord(ctx context.Context, collection, title string, metadata map[string]any, deps []datasvc.Dependency) (string, error)
	UploadFile(ctx context.Context, recordID, localPath string) error
	UploadDataset(ctx context.Context, collection string, sources []string) ([]string, error)
}

// Options configures a Logger.
type Options struct {
	Collection string
	Endpoint   string

	// LocalModelPath is the directory local artefacts are written to.
	// It is created when missing and checked against Access.
	LocalModelPath string
	Access         access.Policy

	// NotebookID is used as-is when it is already a record id.
	NotebookID string
	// ScriptPath is the notebook or script the checkpoints derive from.
	ScriptPath string
	Datasets   []string

	BlockNames  []string
	InputShape  []int
	LogFilePath string
	System      record.SystemInfo
}

// SaveOptions are the per-checkpoint inputs of Save.
type SaveOptions struct {
	// LocalPath is where the artefact is written, relative to
	// LocalModelPath unless absolute. Empty skips local persistence.
	LocalPath string
	// LocalOnly skips the data service entirely.
	LocalOnly bool

	Variables       []classify.Variable
	Hyperparameters map[string]any
	Extra           map[string]any
}

// Logger creates checkpoint records and tracks the lineage cursor.
//
// A Logger is not safe for concurrent use. Use one Logger per training
// worker.
type Logger struct {
	opts        Options
	svc         DataService
	blocks      map[string]any
	assembler   *record.Assembler
	diagnostics *serialize.DiagnosticLog

	state            State
	notebookID       string
	notebookChecksum string
	datasetIDs       []string
	datasetsResolved bool

	// cursor is the id of the last checkpoint this Logger created.
	cursor string
}

// New builds a Logger and resolves the notebook record. blocks maps model
// block names to the block values whose state is persisted locally.
func New(ctx context.Context, opts Options, blocks map[string]any, svc DataService) (*Logger, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: data service is required", ErrConfiguration)
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("%w: collection is required", ErrConfiguration)
	}
	if opts.NotebookID != "" && !datasvc.IsRecordID(opts.NotebookID) {
		return nil, fmt.Errorf("%w: notebook id %q is not a record id", ErrConfiguration, opts.NotebookID)
	}

	if opts.LocalModelPath != "" {
		if err := os.MkdirAll(opts.LocalModelPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create model directory: %w", err)
		}
		if err := access.NewChecker(opts.Access).Check(opts.Endpoint, opts.LocalModelPath); err != nil {
			return nil, err
		}
	}

	names := append([]string{}, opts.BlockNames...)
	for name := range blocks {
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	diagnostics := serialize.NewDiagnosticLog(opts.LogFilePath)
	l := &Logger{
		opts:   opts,
		svc:    svc,
		blocks: blocks,
		assembler: &record.Assembler{
			BlockNames:  names,
			InputShape:  opts.InputShape,
			Handles:     []any{svc},
			ScriptPath:  opts.ScriptPath,
			System:      opts.System,
			Diagnostics: diagnostics,
		},
		diagnostics: diagnostics,
	}

	if err := l.resolveNotebook(ctx); err != nil {
		return nil, err
	}
	l.state = NotebookResolved

	l.state = Ready
	return l, nil
}

// State returns the lifecycle state.
func (l *Logger) State() State { return l.state }

// Cursor returns the id of the last checkpoint created, or "".
func (l *Logger) Cursor() string { return l.cursor }

// NotebookID returns the resolved notebook record id, or "".
func (l *Logger) NotebookID() string { return l.notebookID }

// Reset clears the lineage cursor. The next Save has no previous
// checkpoint dependency.
func (l *Logger) Reset() {
	l.cursor = ""
}

// Save persists a checkpoint named name and returns the new record id.
// With LocalOnly set only the local artefact is written and the id is "".
func (l *Logger) Save(ctx context.Context, name string, opts SaveOptions) (string, error) {
	if l.state != Ready {
		return "", fmt.Errorf("%w: logger is %s", ErrConfiguration, l.state)
	}

	path := l.localPath(opts.LocalPath)
	if shouldWriteArtefact(path) {
		if err := WriteArtefact(path, ArtefactState(l.blocks, opts.Hyperparameters)); err != nil {
			return "", err
		}
		log.Printf("[DEBUG] Wrote checkpoint artefact %s", path)
	}

	if opts.LocalOnly {
		return "", nil
	}

	if err := l.resolveNotebook(ctx); err != nil {
		return "", err
	}
	datasets, err := l.datasets(ctx)
	if err != nil {
		return "", err
	}

	deps := datasvc.DerivedFrom(append([]string{l.notebookID, l.cursor}, datasets...)...)

	rec, err := l.assembler.Assemble(ctx, opts.Variables, opts.Hyperparameters, opts.Extra)
	if err != nil {
		return "", err
	}

	id, err := l.svc.CreateRecord(ctx, l.opts.Collection, name, rec.Map(), deps)
	if err != nil {
		return "", fmt.Errorf("failed to create checkpoint record: %w", err)
	}

	if path != "" {
		if err := l.svc.UploadFile(ctx, id, path); err != nil {
			return "", fmt.Errorf("failed to upload checkpoint %s: %w", id, err)
		}
	}

	l.cursor = id
	log.Printf("[INFO] Saved checkpoint %q as %s (%d dependencies)", name, id, len(deps))
	return id, nil
}

func (l *Logger) localPath(p string) string {
	if p == "" || filepath.IsAbs(p) || l.opts.LocalModelPath == "" {
		return p
	}
	return filepath.Join(l.opts.LocalModelPath, p)
}

// resolveNotebook makes sure a record exists for the current notebook
// content. Unchanged content keeps the previously resolved id.
func (l *Logger) resolveNotebook(ctx context.Context) error {
	if datasvc.IsRecordID(l.opts.NotebookID) {
		l.notebookID = l.opts.NotebookID
		return nil
	}
	if l.opts.ScriptPath == "" {
		return nil
	}

	md, err := notebook.Read(l.opts.ScriptPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if md.Script.Checksum == "" {
		return fmt.Errorf("%w: notebook %s has no checksum", ErrConfiguration, l.opts.ScriptPath)
	}
	if l.notebookID != "" && l.notebookChecksum == md.Script.Checksum {
		return nil
	}

	title := filepath.Base(md.Script.Path)
	// Only records carrying script metadata are notebooks; a checkpoint
	// may share the title.
	existing, err := l.svc.FindRecordWithKey(ctx, l.opts.Collection, title, "script")
	switch {
	case err == nil:
		if sum, ok := notebook.ChecksumOf(existing.Metadata); ok && sum == md.Script.Checksum {
			l.notebookID, l.notebookChecksum = existing.ID, sum
			return nil
		}
	case !datasvc.IsNotFound(err):
		return fmt.Errorf("failed to look up notebook %s: %w", title, err)
	}

	datasets, err := l.datasets(ctx)
	if err != nil {
		return err
	}

	metadata := md.Map()
	metadata["user"], metadata["timestamp"] = l.assembler.UserClock()

	l.diagnostics.Event("Uploading notebook %s", md.Script.Path)
	id, err := l.svc.CreateRecord(ctx, l.opts.Collection, title, metadata, datasvc.DerivedFrom(datasets...))
	if err != nil {
		return fmt.Errorf("failed to create notebook record: %w", err)
	}
	if err := l.svc.UploadFile(ctx, id, md.Script.Path); err != nil {
		return fmt.Errorf("failed to upload notebook %s: %w", id, err)
	}

	log.Printf("[INFO] Uploaded notebook %s as %s", title, id)
	l.notebookID, l.notebookChecksum = id, md.Script.Checksum
	return nil
}

// datasets uploads the configured datasets once and caches their ids.
func (l *Logger) datasets(ctx context.Context) ([]string, error) {
	if l.datasetsResolved {
		return l.datasetIDs, nil
	}
	ids, err := l.svc.UploadDataset(ctx, l.opts.Collection, l.opts.Datasets)
	if err != nil {
		return nil, fmt.Errorf("failed to upload datasets: %w", err)
	}
	l.datasetIDs, l.datasetsResolved = ids, true
	return ids, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
