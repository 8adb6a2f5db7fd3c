package carousel

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const defaultIdleTTL = 10 * time.Minute

// Registry owns one mounted controller per visitor session. Controllers idle
// for longer than the TTL are evicted and unmounted. A controller with an open
// subscription is never idle.
type Registry struct {
	items  *cache.Cache
	opts   []Option
	logger *zap.Logger

	mu sync.Mutex

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry builds a registry whose controllers are created with opts.
// It starts a sweeper that runs until Close.
func NewRegistry(idleTTL time.Duration, logger *zap.Logger, opts ...Option) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// No janitor: the sweeper below owns expiry so Close can stop it.
	items := cache.New(idleTTL, 0)
	items.OnEvicted(func(key string, value any) {
		if ctrl, ok := value.(*Controller); ok {
			ctrl.Unmount()
			logger.Debug("carousel evicted", zap.String("session_id", key), zap.String("carousel_id", ctrl.ID()))
		}
	})
	r := &Registry{
		items:  items,
		opts:   append([]Option(nil), opts...),
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.sweepLoop(idleTTL / 2)
	return r
}

// Mount creates and mounts a controller for sessionID, replacing any previous one.
func (r *Registry) Mount(sessionID string, slides []Slide) (*Controller, error) {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return nil, &PreconditionError{Op: "mount", Reason: "missing session id"}
	}

	opts := append(append([]Option(nil), r.opts...), WithID(ulid.Make().String()), WithLogger(r.logger))
	ctrl := New(opts...)
	if err := ctrl.Mount(slides); err != nil {
		return nil, err
	}

	r.mu.Lock()
	var previous *Controller
	if existing, ok := r.items.Get(key); ok {
		previous, _ = existing.(*Controller)
	}
	r.items.Set(key, ctrl, cache.DefaultExpiration)
	r.mu.Unlock()

	if previous != nil {
		previous.Unmount()
	}
	return ctrl, nil
}

// Get returns the controller for sessionID and extends its idle deadline.
func (r *Registry) Get(sessionID string) (*Controller, bool) {
	key := strings.TrimSpace(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.items.Get(key)
	if !ok {
		return nil, false
	}
	ctrl, ok := value.(*Controller)
	if !ok {
		return nil, false
	}
	r.items.Set(key, ctrl, cache.DefaultExpiration)
	return ctrl, true
}

// Touch extends the idle deadline of the controller for sessionID, if ctrl is
// still the one mounted there.
func (r *Registry) Touch(sessionID string, ctrl *Controller) bool {
	key := strings.TrimSpace(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.items.Get(key)
	if !ok || value != ctrl {
		return false
	}
	r.items.Set(key, ctrl, cache.DefaultExpiration)
	return true
}

// Unmount tears down the controller for sessionID.
func (r *Registry) Unmount(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.Delete(strings.TrimSpace(sessionID))
}

// Len reports how many controllers are mounted.
func (r *Registry) Len() int {
	return r.items.ItemCount()
}

// Close stops the sweeper and unmounts every controller. It is idempotent.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.items.Items() {
		r.items.Delete(key)
	}
}

func (r *Registry) sweepLoop(interval time.Duration) {
	defer close(r.done)
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep renews subscribed controllers, then evicts the expired ones.
// It runs at half the TTL, so a subscribed controller never reaches expiry.
func (r *Registry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, item := range r.items.Items() {
		if ctrl, ok := item.Object.(*Controller); ok && ctrl.Subscribers() > 0 {
			r.items.Set(key, ctrl, cache.DefaultExpiration)
		}
	}
	r.items.DeleteExpired()
}
