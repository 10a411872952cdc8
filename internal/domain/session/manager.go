package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/clipboard"
	"github.com/GriffinCanCode/modide/internal/domain/export"
	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/domain/mutation"
	"github.com/GriffinCanCode/modide/internal/domain/navigation"
	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/domain/search"
	"github.com/GriffinCanCode/modide/internal/domain/transfer"
	"github.com/GriffinCanCode/modide/internal/domain/tree"
	"github.com/GriffinCanCode/modide/internal/shared/id"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Options tune the components built for every session
type Options struct {
	MaxCopyDepth int
	SearchLimit  int
	Notifier     Notifier
	Recorder     Recorder
}

// Manager opens and tracks sessions
type Manager struct {
	logger *zap.Logger
	opts   Options

	mu       sync.RWMutex
	backends map[string]vfs.Backend
	sessions sync.Map
}

// NewManager creates a manager with no backends
func NewManager(logger *zap.Logger, opts ...func(*Options)) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := Options{MaxCopyDepth: transfer.DefaultMaxDepth, SearchLimit: search.DefaultLimit}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return &Manager{logger: logger, opts: o, backends: make(map[string]vfs.Backend)}
}

// WithNotifier sets the event sink
func WithNotifier(n Notifier) func(*Options) {
	return func(o *Options) { o.Notifier = n }
}

// WithRecorder sets the metrics sink
func WithRecorder(r Recorder) func(*Options) {
	return func(o *Options) { o.Recorder = r }
}

// WithLimits sets copy depth and search limits; zero keeps the default
func WithLimits(maxCopyDepth, searchLimit int) func(*Options) {
	return func(o *Options) {
		if maxCopyDepth > 0 {
			o.MaxCopyDepth = maxCopyDepth
		}
		if searchLimit > 0 {
			o.SearchLimit = searchLimit
		}
	}
}

// RegisterBackend makes a backend available under its Type()
func (m *Manager) RegisterBackend(b vfs.Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backends[b.Type()] = b
	m.logger.Info("storage backend registered", zap.String("backend", b.Type()))
}

// Backends returns the registered backend names
func (m *Manager) Backends() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.backends))
	for name := range m.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Backend looks up a registered backend
func (m *Manager) Backend(name string) (vfs.Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[name]
	if !ok {
		return nil, fmt.Errorf("backend %q: %w", name, vfs.ErrNotFound)
	}
	return b, nil
}

// Projects lists projects on a backend that hosts several
func (m *Manager) Projects(ctx context.Context, backend string) ([]string, error) {
	catalog, err := m.catalog(backend)
	if err != nil {
		return nil, err
	}
	return catalog.ListProjects(ctx)
}

// CreateProject adds a project on a backend that hosts several
func (m *Manager) CreateProject(ctx context.Context, backend, name string) error {
	catalog, err := m.catalog(backend)
	if err != nil {
		return err
	}
	if err := catalog.CreateProject(ctx, name); err != nil {
		return err
	}
	m.logger.Info("project created", zap.String("backend", backend), zap.String("project", name))
	return nil
}

func (m *Manager) catalog(backend string) (vfs.ProjectCatalog, error) {
	b, err := m.Backend(backend)
	if err != nil {
		return nil, err
	}
	catalog, ok := b.(vfs.ProjectCatalog)
	if !ok {
		return nil, fmt.Errorf("backend %q has no project catalog: %w", backend, vfs.ErrUnsupported)
	}
	return catalog, nil
}

// Open acquires the project root and builds a session around it
func (m *Manager) Open(ctx context.Context, backend, project string, mode vfs.Mode) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("mode %q: %w", mode, vfs.ErrUnsupported)
	}
	b, err := m.Backend(backend)
	if err != nil {
		return nil, err
	}
	root, err := b.AcquireRoot(ctx, project, mode)
	if err != nil {
		return nil, err
	}

	logger := m.logger.With(zap.String("project", project), zap.String("backend", backend))
	gate := permission.NewGate(b, logger)
	if err := gate.Ensure(ctx, root, mode); err != nil {
		return nil, err
	}

	lister := listing.NewLister(b, gate, logger)
	nav := navigation.NewController(b, root, logger)
	s := &Session{
		id:        id.NewSessionID(),
		project:   project,
		mode:      mode,
		createdAt: time.Now(),
		backend:   b,
		gate:      gate,
		lister:    lister,
		nav:       nav,
		clip:      clipboard.NewController(),
		view:      tree.NewView(lister, nav, logger),
		ops:       mutation.NewOps(b, gate, logger),
		engine:    transfer.NewEngine(b, gate, logger, transfer.WithMaxDepth(m.opts.MaxCopyDepth)),
		exporter:  export.NewExporter(b, lister, logger),
		searcher:  search.NewSearcher(b, lister, logger, m.opts.SearchLimit),
		notifier:  m.opts.Notifier,
		recorder:  m.opts.Recorder,
	}
	s.logger = logger.With(zap.String("session", s.id.String()))

	m.sessions.Store(s.id, s)
	s.logger.Info("session opened", zap.String("mode", string(mode)))
	return s, nil
}

// Get looks up an open session
func (m *Manager) Get(sid id.SessionID) (*Session, bool) {
	v, ok := m.sessions.Load(sid)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Close returns the session home and forgets it
func (m *Manager) Close(sid id.SessionID) error {
	v, ok := m.sessions.LoadAndDelete(sid)
	if !ok {
		return fmt.Errorf("session %s: %w", sid, vfs.ErrNotFound)
	}
	s := v.(*Session)
	s.Close()
	s.logger.Info("session closed")
	return nil
}

// CloseAll closes every session, used on shutdown
func (m *Manager) CloseAll() {
	m.sessions.Range(func(k, _ any) bool {
		m.Close(k.(id.SessionID))
		return true
	})
}

// Count returns the number of open sessions
func (m *Manager) Count() int {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
