// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns exactly one channel at a time; Connect replaces any existing one
//   - Announces the user (init_connection, get_users) as soon as the channel opens
//   - Hands every received frame, in arrival order, to a single bound Handler
//   - Reconnects after unexpected closes with a fixed delay, up to a maximum
//     number of attempts; a successful open resets the counter
//   - Drops outgoing commands when the channel is not open (no queueing)
package connection
