// Package checksum computes content digests for files uploaded to the data service.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Reader is an io.Reader that digests every byte read through it.
type Reader interface {
	io.Reader

	// Sum returns the digest of the bytes read so far.
	Sum() []byte
}

type md5Reader struct {
	source io.Reader
	md5    hash.Hash
}

// NewMD5Reader wraps source so that everything read is fed to an MD5 digest.
func NewMD5Reader(source io.Reader) Reader {
	return &md5Reader{
		source: source,
		md5:    md5.New(),
	}
}

func (mr *md5Reader) Read(p []byte) (int, error) {
	n, err := mr.source.Read(p)
	if 0 < n {
		mr.md5.Write(p[:n])
	}
	return n, err
}

func (mr *md5Reader) Sum() []byte {
	return mr.md5.Sum(nil)
}

// File returns the hex-encoded MD5 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := NewMD5Reader(f)
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(r.Sum()), nil
}

// Bytes returns the hex-encoded MD5 digest of b.
func Bytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
