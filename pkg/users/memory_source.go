package users

// MemorySource implements Source using an in-memory slice
type MemorySource struct {
	users []User
}

// NewMemorySource creates a new MemorySource
func NewMemorySource(users ...User) *MemorySource {
	return &MemorySource{users: users}
}

// LoadUsers implements Source
func (s *MemorySource) LoadUsers() ([]User, error) {
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// AddUser adds a user to the memory source
func (s *MemorySource) AddUser(u User) {
	s.users = append(s.users, u)
}
