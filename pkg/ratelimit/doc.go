// Package ratelimit paces calls made by the remote client so that long
// paginations do not trip the service's own throttling.
package ratelimit
