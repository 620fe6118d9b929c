package datasvc

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/dyluth/flowlog/internal/checksum"
)

// UploadDataset registers dataset sources in a collection and returns their
// record ids in input order. A source is either an existing record id, which
// passes through unchanged, a file, or a directory whose files are registered
// recursively in lexical order. A file whose title already maps to a record
// with the same checksum reuses that record.
func (c *Client) UploadDataset(ctx context.Context, collection string, sources []string) ([]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	var ids []string
	for _, src := range sources {
		if IsRecordID(src) {
			ids = append(ids, src)
			continue
		}

		info, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("failed to stat dataset %s: %w", src, err)
		}

		if !info.IsDir() {
			id, err := c.uploadDatasetFile(ctx, collection, src)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
			continue
		}

		err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			id, err := c.uploadDatasetFile(ctx, collection, path)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload dataset directory %s: %w", src, err)
		}
	}
	return ids, nil
}

func (c *Client) uploadDatasetFile(ctx context.Context, collection, path string) (string, error) {
	title := filepath.Base(path)
	sum, err := checksum.File(path)
	if err != nil {
		return "", err
	}

	existing, err := c.FindRecordWithKey(ctx, collection, title, "dataset")
	switch {
	case err == nil:
		if existing.FileChecksum == sum {
			log.Printf("[DEBUG] Dataset %s unchanged, reusing %s", path, existing.ID)
			return existing.ID, nil
		}
	case !IsNotFound(err):
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	id, err := c.CreateRecord(ctx, collection, title, map[string]any{
		"dataset": map[string]any{
			"path":     abs,
			"checksum": sum,
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create dataset record for %s: %w", path, err)
	}
	if err := c.UploadFile(ctx, id, path); err != nil {
		return "", err
	}

	log.Printf("[INFO] Uploaded dataset %s as %s", path, id)
	return id, nil
}
