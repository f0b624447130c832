// Package client talks to the e-library account API over HTTP.
//
// HTTPClient keeps the session cookie in a cookie jar and mirrors the
// session token into a SessionStore file, so a login survives CLI restarts.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable. A non-2xx reply is an
// *APIError carrying the status and the server's message; 401 replies also
// match ErrUnauthorized with errors.Is.
package client
