// Package search finds project entries whose relative path matches a glob.
//
// Patterns use doublestar syntax: "**/*.ini", "units/*/sprite.png", "{maps,units}/**".
package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// ErrBadPattern is returned for malformed globs
var ErrBadPattern = doublestar.ErrBadPattern

// DefaultLimit caps the number of matches returned
const DefaultLimit = 1000

// Match is one matching entry
type Match struct {
	Path string   `json:"path"`
	Kind vfs.Kind `json:"kind"`
}

// Result of a search
type Result struct {
	Pattern   string  `json:"pattern"`
	Matches   []Match `json:"matches"`
	Truncated bool    `json:"truncated"`
}

// Searcher walks a project and matches paths
type Searcher struct {
	backend vfs.Backend
	lister  *listing.Lister
	logger  *zap.Logger
	limit   int
}

// NewSearcher creates a searcher. limit <= 0 uses DefaultLimit.
func NewSearcher(backend vfs.Backend, lister *listing.Lister, logger *zap.Logger, limit int) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{backend: backend, lister: lister, logger: logger, limit: limit}
}

// Search matches pattern against every path below dir
func (s *Searcher) Search(ctx context.Context, dir vfs.Handle, pattern string) (*Result, error) {
	if pattern == "" || !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("pattern %q: %w", pattern, ErrBadPattern)
	}

	var (
		mu      sync.Mutex
		matches []Match
	)
	collect := func(rel string, kind vfs.Kind) error {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			mu.Lock()
			matches = append(matches, Match{Path: rel, Kind: kind})
			mu.Unlock()
		}
		return nil
	}

	var err error
	if w, ok := s.backend.(vfs.Walker); ok {
		if err = s.lister.Gate().Ensure(ctx, dir, vfs.ModeRead); err == nil {
			err = w.Walk(ctx, dir, collect)
		}
	} else {
		err = s.walk(ctx, dir, collect)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	res := &Result{Pattern: pattern, Matches: matches}
	if len(matches) > s.limit {
		res.Matches = matches[:s.limit]
		res.Truncated = true
	}
	s.logger.Debug("search finished", zap.String("pattern", pattern), zap.Int("matches", len(matches)))
	return res, nil
}

type pending struct {
	h   vfs.Handle
	rel string
}

// walk lists directories through the permission gate using an explicit stack.
// Unreadable directories are logged and skipped.
func (s *Searcher) walk(ctx context.Context, dir vfs.Handle, fn vfs.WalkFunc) error {
	stack := []pending{{h: dir}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := s.lister.List(ctx, p.h)
		if err != nil {
			if p.rel == "" {
				return err
			}
			s.logger.Warn("search skipped directory", zap.String("path", p.rel), zap.Error(err))
			continue
		}
		for _, e := range entries {
			rel := e.Name
			if p.rel != "" {
				rel = p.rel + "/" + e.Name
			}
			if err := fn(rel, e.Kind); err != nil {
				return err
			}
			if e.IsDir() {
				stack = append(stack, pending{h: e.Handle, rel: rel})
			}
		}
	}
	return nil
}
