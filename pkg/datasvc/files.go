package datasvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dyluth/flowlog/internal/checksum"
	"github.com/redis/go-redis/v9"
)

// UploadFile attaches the file at localPath to an existing record.
// A second upload replaces the first.
func (c *Client) UploadFile(ctx context.Context, recordID, localPath string) error {
	r, err := c.GetRecord(ctx, recordID)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("cannot upload to %s: %w", recordID, err)
		}
		return err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	r.FileName = filepath.Base(localPath)
	r.FileSize = int64(len(data))
	r.FileChecksum = checksum.Bytes(data)
	r.UpdatedAtMs = time.Now().UnixMilli()

	err = retry(ctx, c.retry, func() error {
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, FileKey(c.namespace, recordID), data, 0)
			pipe.HSet(ctx, RecordKey(c.namespace, recordID),
				"file_name", r.FileName,
				"file_size", r.FileSize,
				"file_checksum", r.FileChecksum,
				"updated_at_ms", r.UpdatedAtMs,
			)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	return c.publish(ctx, RecordEventUploaded, r)
}

// DownloadFile writes a record's file into destDir and reports the transfer status.
// Only TaskStatusSucceeded means the file is on disk.
func (c *Client) DownloadFile(ctx context.Context, recordID, destDir string) (TaskStatus, error) {
	r, err := c.GetRecord(ctx, recordID)
	if err != nil {
		return TaskStatusFailed, err
	}
	if r.FileName == "" {
		return TaskStatusFailed, fmt.Errorf("record %s has no file attached", recordID)
	}

	var data []byte
	err = retry(ctx, c.retry, func() error {
		var err error
		data, err = c.rdb.Get(ctx, FileKey(c.namespace, recordID)).Bytes()
		return err
	})
	if err != nil {
		return TaskStatusFailed, fmt.Errorf("failed to fetch file for %s: %w", recordID, err)
	}

	if r.FileChecksum != "" && checksum.Bytes(data) != r.FileChecksum {
		return TaskStatusFailed, fmt.Errorf("checksum mismatch for %s", recordID)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return TaskStatusFailed, fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	dest := filepath.Join(destDir, r.FileName)
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return TaskStatusFailed, fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return TaskStatusSucceeded, nil
}
