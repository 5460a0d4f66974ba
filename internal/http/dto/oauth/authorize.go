package oauth

// Parámetros de /authorize y /authorize/callback.
const (
	ParamResponseType  = "response_type"
	ParamClientID      = "client_id"
	ParamRedirectURI   = "redirect_uri"
	ParamScope         = "scope"
	ParamState         = "state"
	ParamAuthenticator = "authenticator"
)

// Valores de response_type.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// Valores de grant_type.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
)
