// Package view holds the view models of the console pages. Sections of a
// page load lazily and independently; each one tracks its own LoadState.
package view

import (
	"context"
	"sync"
)

type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "not_loaded"
}

func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Section is a lazily loaded part of a page.
type Section[T any] struct {
	mu    sync.Mutex
	state LoadState
	value T
	err   error
}

// Load runs fn unless the section is already loaded or loading, and
// records its outcome. A failed section loads again on the next call.
func (s *Section[T]) Load(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	if s.state == Loaded || s.state == Loading {
		v, err := s.value, s.err
		s.mu.Unlock()
		return v, err
	}
	s.state = Loading
	s.mu.Unlock()

	return s.finish(fn(ctx))
}

// Reload runs fn regardless of the current state.
func (s *Section[T]) Reload(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	s.state = Loading
	s.mu.Unlock()

	return s.finish(fn(ctx))
}

func (s *Section[T]) finish(v T, err error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		var zero T
		s.state, s.value, s.err = Failed, zero, err
		return zero, err
	}
	s.state, s.value, s.err = Loaded, v, nil
	return v, nil
}

// Update replaces a loaded value in place, as after a successful edit.
// Sections that are not loaded are left alone.
func (s *Section[T]) Update(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Loaded {
		s.value = fn(s.value)
	}
}

func (s *Section[T]) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Section[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Section[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Section[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.state, s.value, s.err = NotLoaded, zero, nil
}
