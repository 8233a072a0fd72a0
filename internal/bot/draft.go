package bot

import (
	"sync"

	"github.com/padelwatch/padelwatch/internal/subscription"
)

// draft is one user's in-progress subscribe flow. It lives only in memory;
// an abandoned draft is simply overwritten next time.
type draft struct {
	location string
	pred     subscription.DatePredicate
	hour     int
	hourSet  bool
}

type draftStore struct {
	mu sync.Mutex
	m  map[int64]*draft
}

func newDraftStore() *draftStore {
	return &draftStore{m: make(map[int64]*draft)}
}

// get returns the user's draft, creating an empty one if needed.
func (s *draftStore) get(userID int64) *draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.m[userID]
	if !ok {
		d = &draft{}
		s.m[userID] = d
	}
	return d
}

func (s *draftStore) clear(userID int64) {
	s.mu.Lock()
	delete(s.m, userID)
	s.mu.Unlock()
}
