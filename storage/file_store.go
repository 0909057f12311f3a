package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"idealista-watcher/models"
	"idealista-watcher/utils"
)

// SeenFile stores seen links as a JSON array of strings.
type SeenFile struct {
	path string
}

// NewSeenFile returns a SeenStore backed by the JSON file at path.
func NewSeenFile(path string) *SeenFile {
	return &SeenFile{path: path}
}

func (s *SeenFile) Load(_ context.Context) (*utils.URLSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return utils.NewURLSet(), nil
	}
	if err != nil {
		return utils.NewURLSet(), fmt.Errorf("seen file: read %q: %w", s.path, err)
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return utils.NewURLSet(), fmt.Errorf("%w: seen file %q: %v", ErrCorrupt, s.path, err)
	}
	return utils.NewURLSetFrom(links), nil
}

func (s *SeenFile) Persist(_ context.Context, set *utils.URLSet) error {
	data, err := json.Marshal(set.Links())
	if err != nil {
		return fmt.Errorf("seen file: encode: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("seen file: %w", err)
	}
	return nil
}

// ErrorStatusFile stores the error status as {"status_code": <int|null>}.
type ErrorStatusFile struct {
	path string
}

// NewErrorStatusFile returns an ErrorStateStore backed by the JSON file at path.
func NewErrorStatusFile(path string) *ErrorStatusFile {
	return &ErrorStatusFile{path: path}
}

func (e *ErrorStatusFile) Load(_ context.Context) (models.ErrorStatus, error) {
	var status models.ErrorStatus

	data, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("error status file: read %q: %w", e.path, err)
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return models.ErrorStatus{}, fmt.Errorf("%w: error status file %q: %v", ErrCorrupt, e.path, err)
	}
	return status, nil
}

func (e *ErrorStatusFile) RecordError(_ context.Context, code int) error {
	return e.write(models.ErrorStatus{Code: &code})
}

func (e *ErrorStatusFile) Clear(_ context.Context) error {
	return e.write(models.ErrorStatus{})
}

func (e *ErrorStatusFile) write(status models.ErrorStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("error status file: encode: %w", err)
	}
	if err := writeFileAtomic(e.path, data); err != nil {
		return fmt.Errorf("error status file: %w", err)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place so a
// crash never leaves a half-written store behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %q: %w", path, err)
	}
	return nil
}
