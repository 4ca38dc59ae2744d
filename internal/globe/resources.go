package globe

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// ErrScopeClosed is returned when acquiring into a scope that was already torn down.
var ErrScopeClosed = errors.New("resource scope closed")

// Handle is an owned renderable resource (texture, geometry, timer, tween).
type Handle struct {
	name    string
	release func() error
	once    sync.Once
	err     error
}

func (h *Handle) Name() string { return h.name }

// Release frees the resource. Subsequent calls return the first result.
func (h *Handle) Release() error {
	h.once.Do(func() {
		if h.release != nil {
			h.err = h.release()
		}
	})
	return h.err
}

// ResourceScope owns handles and releases them in reverse acquisition order on Close.
type ResourceScope struct {
	mu      sync.Mutex
	handles []*Handle
	closed  bool
}

func NewResourceScope() *ResourceScope {
	return &ResourceScope{}
}

// Acquire registers release under name. If the scope is closed the resource is
// released immediately and ErrScopeClosed is returned.
func (s *ResourceScope) Acquire(name string, release func() error) (*Handle, error) {
	h := &Handle{name: name, release: release}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, multierr.Append(ErrScopeClosed, h.Release())
	}
	s.handles = append(s.handles, h)
	s.mu.Unlock()

	return h, nil
}

// Len reports the number of handles still owned by the scope.
func (s *ResourceScope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Close releases every handle, newest first, and combines their errors.
// It is safe to call more than once.
func (s *ResourceScope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	var err error
	for i := len(handles) - 1; i >= 0; i-- {
		if rerr := handles[i].Release(); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("release %s: %w", handles[i].name, rerr))
		}
	}
	return err
}
