package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/flowlog/internal/classify"
	"github.com/dyluth/flowlog/internal/serialize"
	"github.com/klauspost/compress/zstd"
)

// shouldWriteArtefact reports whether Save persists weights to path: only a
// fresh, non-archive path is written.
func shouldWriteArtefact(path string) bool {
	if path == "" {
		return false
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return false
	}
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

// ArtefactState merges the state snapshot of every block with the
// hyperparameters. Tensors become nested lists; other leaves go through
// the fallback chain and are dropped when they cannot be encoded.
func ArtefactState(blocks, hyperparameters map[string]any) map[string]any {
	state := make(map[string]any, len(blocks)+len(hyperparameters))
	for name, block := range blocks {
		s, ok := block.(classify.Stateful)
		if !ok {
			continue
		}
		snapshot := map[string]any{}
		for k, v := range s.StateDict() {
			if leaf, ok := artefactLeaf(v); ok {
				snapshot[k] = leaf
			}
		}
		state[name] = snapshot
	}
	for k, v := range hyperparameters {
		if leaf, ok := artefactLeaf(v); ok {
			state[k] = leaf
		}
	}
	return state
}

func artefactLeaf(v any) (any, bool) {
	if t, ok := v.(classify.Tensor); ok {
		v = t.List()
	}
	out := serialize.Chain(v)
	return out.Value, out.Ok()
}

// WriteArtefact writes state as zstd-compressed JSON to path.
func WriteArtefact(path string, state map[string]any) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artefact directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artefact %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close artefact %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(state); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode artefact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush artefact: %w", err)
	}
	return nil
}

// ReadArtefact decodes an artefact written by WriteArtefact.
func ReadArtefact(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artefact %s: %w", path, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var state map[string]any
	if err := json.NewDecoder(zr).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode artefact %s: %w", path, err)
	}
	return state, nil
}
