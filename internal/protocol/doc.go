// Package protocol defines the JSON messages exchanged over the channel.
//
// Outgoing commands carry an "action" discriminator and are fire-and-forget:
// there are no correlation IDs and no acknowledgements. State changes are
// observed only through subsequent "update_users" pushes.
//
// Incoming messages carry a "type" discriminator:
//   - update_users: full snapshot of the four user collections
//   - notification: server-pushed notice, optionally asking for a refresh
//   - error: server-reported fault
//   - pong: reply to a ping command
package protocol
