// Package state implements the Connection State Store.
//
// The store exclusively owns:
//   - the latest user list snapshot (replaced atomically, never merged)
//   - the notification queue (newest first, bounded)
//   - the last error text
//
// Only the message dispatcher writes to it during a session; rendering code
// reads copies through Snapshot, Notifications, Error and View.
package state
