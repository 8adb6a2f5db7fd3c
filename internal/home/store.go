package home

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"

	"finitefield.org/storefront-web/internal/storefront"
)

const defaultParkTTL = 2 * time.Minute

// DeferredStore parks pending recommendation fetches so a follow-up fragment
// request can await the same result.
type DeferredStore struct {
	items *cache.Cache

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewDeferredStore builds a store whose entries expire after ttl. Expired
// entries are swept every ttl until Close.
func NewDeferredStore(ttl time.Duration) *DeferredStore {
	if ttl <= 0 {
		ttl = defaultParkTTL
	}
	s := &DeferredStore{
		items: cache.New(ttl, 0),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.sweepLoop(ttl)
	return s
}

// Put parks d and returns its id.
func (s *DeferredStore) Put(d *Deferred[[]storefront.Product]) string {
	id := ulid.Make().String()
	s.items.SetDefault(id, d)
	return id
}

// Take removes and returns the deferred parked under id.
func (s *DeferredStore) Take(id string) (*Deferred[[]storefront.Product], bool) {
	value, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	s.items.Delete(id)
	d, ok := value.(*Deferred[[]storefront.Product])
	return d, ok
}

// Len reports how many deferreds are parked.
func (s *DeferredStore) Len() int {
	return s.items.ItemCount()
}

// Close stops the sweeper and drops every parked deferred. It is idempotent.
func (s *DeferredStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
	s.items.Flush()
}

func (s *DeferredStore) sweepLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.items.DeleteExpired()
		}
	}
}
