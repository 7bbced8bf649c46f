// Package storage persists manifests by their canonical JSON form. Every
// store keeps all versions and refuses to overwrite a newer one.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ivlev/promoreel/internal/manifest"
)

var (
	ErrNotFound        = errors.New("manifest not found")
	ErrVersionConflict = errors.New("manifest version conflict")
)

// Store is the persistence contract shared by the API and the CLI.
type Store interface {
	// Save records m as the latest version. It fails with
	// ErrVersionConflict unless m.Version is above the stored one.
	Save(ctx context.Context, m manifest.VideoManifest) error
	Load(ctx context.Context, id string) (manifest.VideoManifest, error)
	LoadVersion(ctx context.Context, id string, version int) (manifest.VideoManifest, error)
	Versions(ctx context.Context, id string) ([]int, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu       sync.RWMutex
	versions map[string]map[int]manifest.VideoManifest
	latest   map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string]map[int]manifest.VideoManifest),
		latest:   make(map[string]int),
	}
}

func (s *Memory) Save(_ context.Context, m manifest.VideoManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.latest[m.ID]; ok && cur >= m.Version {
		return ErrVersionConflict
	}
	if s.versions[m.ID] == nil {
		s.versions[m.ID] = make(map[int]manifest.VideoManifest)
	}
	s.versions[m.ID][m.Version] = m.Clone()
	s.latest[m.ID] = m.Version
	return nil
}

func (s *Memory) Load(ctx context.Context, id string) (manifest.VideoManifest, error) {
	s.mu.RLock()
	v, ok := s.latest[id]
	s.mu.RUnlock()
	if !ok {
		return manifest.VideoManifest{}, ErrNotFound
	}
	return s.LoadVersion(ctx, id, v)
}

func (s *Memory) LoadVersion(_ context.Context, id string, version int) (manifest.VideoManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.versions[id][version]
	if !ok {
		return manifest.VideoManifest{}, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *Memory) Versions(_ context.Context, id string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVersion, ok := s.versions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]int, 0, len(byVersion))
	for v := range byVersion {
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}
