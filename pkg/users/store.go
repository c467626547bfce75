package users

import (
	"hash/fnv"
	"sync"
)

// shardCount matches the shard amount the bootstrap data was sized for.
const shardCount = 16

type shard struct {
	mu    sync.RWMutex
	users map[string]*User
}

// Store is a concurrent login->User map sharded to keep lock contention
// bounded. Operations on different shards never block each other;
// operations on the same login serialize on the shard lock.
type Store struct {
	shards [shardCount]*shard
}

// NewStore creates an empty Store
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{users: make(map[string]*User, 64)}
	}
	return s
}

// NewStoreFromSource creates a Store preloaded from a bootstrap source.
// Duplicate logins in the source keep the last record seen.
func NewStoreFromSource(source Source) (*Store, error) {
	loaded, err := source.LoadUsers()
	if err != nil {
		return nil, err
	}

	s := NewStore()
	for i := range loaded {
		u := loaded[i]
		sh := s.shard(u.Login)
		sh.users[u.Login] = &u
	}
	return s, nil
}

func (s *Store) shard(login string) *shard {
	h := fnv.New32a()
	h.Write([]byte(login))
	return s.shards[h.Sum32()%shardCount]
}

// Get returns a snapshot copy of the user record
func (s *Store) Get(login string) (User, bool) {
	sh := s.shard(login)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	u, ok := sh.users[login]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Exists checks if a login is taken
func (s *Store) Exists(login string) bool {
	sh := s.shard(login)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, ok := sh.users[login]
	return ok
}

// Create inserts a new user record. It returns ErrUserExists if the login
// is already taken; callers that pre-check Exists still get a correct
// answer under concurrent registration.
func (s *Store) Create(u User) error {
	sh := s.shard(u.Login)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.users[u.Login]; ok {
		return ErrUserExists
	}
	sh.users[u.Login] = &u
	return nil
}

// Update runs fn with exclusive access to the live record. This is the
// get-for-mutation path: the record may be modified in place, and no
// reader of the same shard observes a partial update. If fn returns an
// error the error is passed through (mutations fn already made stand).
func (s *Store) Update(login string, fn func(*User) error) error {
	sh := s.shard(login)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	u, ok := sh.users[login]
	if !ok {
		return ErrUserNotFound
	}
	return fn(u)
}

// Len returns the number of stored users
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.users)
		sh.mu.RUnlock()
	}
	return n
}
