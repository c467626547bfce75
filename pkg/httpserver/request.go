package httpserver

// Wire shapes of the JSON request bodies.

type authRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Nonce    string `json:"nonce"`
}

type registerUserRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Name     string `json:"name"`
}

// editUserRequest is a partial update; absent fields stay untouched
type editUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
}
