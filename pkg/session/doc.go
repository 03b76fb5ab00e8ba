// Package session caches login sessions keyed by account credentials, so
// that binding the same account again can skip the login request.
//
// FileStore writes one file per credential pair under a hidden
// .instapi_cache directory discovered by walking up from the working
// directory. KeyringStore uses the system keychain. Manager chains stores
// with fallback.
package session
