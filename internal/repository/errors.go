// Package repository implements MongoDB persistence for the application's
// collections. Sentinel errors defined here let handlers translate failure
// scenarios into HTTP status codes without inspecting driver errors: every
// repository maps mongo.ErrNoDocuments and malformed ids to ErrNotFound and
// duplicate key violations on users.email to ErrEmailExists.
package repository

import "errors"

// ErrNotFound is returned when a document does not exist. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when creating or updating a user would violate
// email uniqueness. Handlers should translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenExpired is returned when a reset token exists but its expiry has
// passed. The token is deleted before this error is returned.
var ErrTokenExpired = errors.New("token expired")
