package models

// OIDCCallbackRequest is forwarded to the Django oidc-callback endpoint to
// exchange the authorization code.
type OIDCCallbackRequest struct {
	Code         string `json:"code"`
	State        string `json:"state"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
}

// OIDCCallbackResponse is the Django exchange result. Exactly one of Token
// or Error is expected to be set; anything else is treated as no_token.
type OIDCCallbackResponse struct {
	Token            string `json:"token,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Login error codes appended to the login page redirect. These are part of
// the frontend contract and must stay stable.
const (
	ErrNoCode         = "no_code"
	ErrNoCodeVerifier = "no_code_verifier"
	ErrBackendError   = "backend_error"
	ErrNoToken        = "no_token"
	ErrServerError    = "server_error"
)

// PKCECookieName holds the code verifier between login initiation and the
// provider redirect. Single-use: deleted on successful exchange.
const PKCECookieName = "pkce_code_verifier"
