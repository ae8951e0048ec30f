package common

// AuthorizationHeaderName carries the admin bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName echoes the per-request id back to the caller.
const RequestIDHeaderName = "X-Request-ID"
