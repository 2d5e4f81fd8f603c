// Package poller implements the periodic user list refresh.
//
// The server pushes update_users whenever the graph changes, but a push can be
// lost while the channel is reconnecting. The Poller sends get_users on a fixed
// interval so the local snapshot converges even then. An interval of zero
// disables it.
package poller
