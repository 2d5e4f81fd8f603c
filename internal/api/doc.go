// Package api provides the REST client for the chat backend's account endpoints.
//
// Endpoints, relative to the configured base URL:
//   - POST login/    {"username", "password"} -> {"access", "refresh"}
//   - POST register/ {"username", "password"} -> {"message"}
//
// The access token returned by login authenticates the WebSocket channel.
package api
