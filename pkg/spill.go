// Package pkg provides generic utilities for movemut.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileSpill is a generic append-only store that spills items of type T to
// disk, so very large mutant sweeps do not have to hold every result in
// memory. Safe for concurrent appends.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewFileSpill creates a spill file at path, truncating any previous content.
func NewFileSpill[T any](path string) (FileSpill[T], error) {
	file, err := os.Create(path) // #nosec G304 - path is an internal artifact location
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	return &fileSpill[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Len returns the number of items appended so far.
func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Path returns the spill file location.
func (f *fileSpill[T]) Path() string {
	return f.path
}

// Append encodes one item at the end of the spill.
func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode spill item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("encode spill item: %w", err)
	}

	f.length++

	return nil
}

// AppendBatch appends the items in order.
func (f *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Range replays every spilled item in append order. Stops at the first error
// returned by f.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	length := f.length
	f.mu.Unlock()

	file, err := os.Open(f.path) // #nosec G304 - replaying our own artifact
	if err != nil {
		return fmt.Errorf("open spill file: %w", err)
	}

	defer func() { _ = file.Close() }()

	decoder := gob.NewDecoder(file)

	for index := uint64(0); index < length; index++ {
		var item T
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("decode spill item %d: %w", index, err)
		}

		if err := fn(index, item); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes and closes the underlying file.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil

	if err != nil {
		slog.Error("failed to close spill file", "path", f.path, "error", err)
		return err
	}

	return nil
}
