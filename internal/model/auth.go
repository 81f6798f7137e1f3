package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a browser session token
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	jwt.RegisteredClaims
}

// StartSessionRequest optionally carries the durable client id of a returning browser
type StartSessionRequest struct {
	ClientID string `json:"clientId,omitempty"`
}

// StartSessionResponse is returned after a session is opened
type StartSessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	Screen    Screen `json:"screen"`
}
