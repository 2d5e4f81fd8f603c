// Package dispatch decodes frames from the channel and applies them to the
// client state store.
//
// Each frame carries a "type" field. Recognized types:
//
//   - update_users: replaces the whole user list snapshot
//   - notification: pushes a notice, optionally asking for a refresh
//   - error: records the server error message
//   - pong: answers a ping command
//
// Anything else is logged at debug level and ignored. Frames that are not
// JSON objects are dropped and counted as parse errors.
package dispatch
