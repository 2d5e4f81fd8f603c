package api

import "errors"

// ErrNoAccessToken is returned when a login response carries no access token.
var ErrNoAccessToken = errors.New("login response has no access token")

// credentialsRequest is the body for login/ and register/.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by login/.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterResponse is the body returned by register/.
type RegisterResponse struct {
	Message string `json:"message"`
}

// errorResponse is the body returned on 4xx.
type errorResponse struct {
	Error string `json:"error"`
}
