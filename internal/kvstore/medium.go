// Package kvstore provides the key-value storage media the dashboard persists
// into, plus JSON helpers for storing a whole collection under one key.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// Medium is a string key-value store. Implementations must treat Set as a
// single atomic replacement of the value under key.
type Medium interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ErrQuotaExceeded is returned when the medium refuses a write for capacity reasons.
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// StorageError reports a failed medium operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("kvstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MalformedError reports a stored value that could not be decoded.
type MalformedError struct {
	Key string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("kvstore: malformed value under %q: %v", e.Key, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Key: key, Err: err}
}
