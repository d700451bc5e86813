package cache

import (
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// FileContent is a cached file read, fingerprinted so callers can detect
// identical content across paths without re-hashing.
type FileContent struct {
	Data        []byte
	Fingerprint uint64
}

// FileReader wraps repeated file reads in a bounded cache. Manifest files
// in node_modules and shared config files are read many times per run;
// caching the bytes keeps the scan I/O proportional to distinct files.
type FileReader struct {
	cache *Cache[FileContent]
}

// NewFileReader creates a file-read cache bounded by maxSize entries.
func NewFileReader(maxSize int, ttl time.Duration) *FileReader {
	return &FileReader{cache: New[FileContent](maxSize, ttl)}
}

// Read returns the file's content, serving from cache when possible.
func (r *FileReader) Read(path string) ([]byte, error) {
	content, err := r.load(path)
	if err != nil {
		return nil, err
	}
	return content.Data, nil
}

// Fingerprint returns the content hash for a path, reading through the
// cache when the content is not already resident. Paths with identical
// bytes yield identical fingerprints.
func (r *FileReader) Fingerprint(path string) (uint64, error) {
	content, err := r.load(path)
	if err != nil {
		return 0, err
	}
	return content.Fingerprint, nil
}

func (r *FileReader) load(path string) (FileContent, error) {
	if content, ok := r.cache.Get(path); ok {
		return content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileContent{}, err
	}

	content := FileContent{
		Data:        data,
		Fingerprint: xxhash.Sum64(data),
	}
	r.cache.Set(path, content)
	return content, nil
}

// Clear drops all cached reads.
func (r *FileReader) Clear() {
	r.cache.Clear()
}

// Stats exposes the underlying cache counters.
func (r *FileReader) Stats() Stats {
	return r.cache.Stats()
}
