package users

// User is one account record. Login is the immutable key; every other
// field is mutated only through Store.Update.
type User struct {
	Login    string `json:"login"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	IsAdmin  bool   `json:"is_admin,omitempty"`

	// IsBanned and Nonce are runtime state and never leave the process.
	IsBanned bool   `json:"-"`
	Nonce    string `json:"-"`
}

// Source represents a source of bootstrap user data
type Source interface {
	// LoadUsers loads the full initial user set
	LoadUsers() ([]User, error)
}
