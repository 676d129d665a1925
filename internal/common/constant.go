package common

// AccessTokenHeaderName is the HTTP header carrying the bearer session token
// on authenticated requests.
const AccessTokenHeaderName = "Authorization"

// BearerPrefix precedes the token value in the Authorization header.
const BearerPrefix = "Bearer "
