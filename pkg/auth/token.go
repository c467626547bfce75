package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the payload of an issued bearer token. Expiry is
// intentionally absent: tokens never expire in this design.
type tokenClaims struct {
	Login string `json:"login"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// signToken issues an HS256 token over {login, nonce}.
func signToken(key []byte, login, nonce string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Login: login,
		Nonce: nonce,
	})
	return tok.SignedString(key)
}

// parseToken verifies the signature and returns the embedded claims.
// Only HS256 is accepted; an attacker-chosen algorithm is rejected
// before the key is ever applied.
func parseToken(key []byte, token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
