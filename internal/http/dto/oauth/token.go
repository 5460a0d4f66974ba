// Package oauth contiene los DTOs de los endpoints OAuth2.
package oauth

// TokenResponse es la respuesta de POST /token (RFC 6749 §5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	State        string `json:"state,omitempty"`
}

// TokenInfoResponse es la respuesta de GET /tokeninfo.
type TokenInfoResponse struct {
	ClientID  string            `json:"client_id"`
	TokenType string            `json:"token_type"`
	ExpiresIn int64             `json:"expires_in"`
	Scope     string            `json:"scope"`
	UserID    string            `json:"user_id,omitempty"`
	Claims    map[string]string `json:"claims,omitempty"`
}
