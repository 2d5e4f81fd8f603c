// Package model defines the shared data types of the connection-request graph.
//
// Conventions:
//   - Users are identified by username strings
//   - Notification IDs: int64 milliseconds since Unix epoch, strictly increasing
//   - Slices returned to callers are copies; callers may modify them freely
package model
