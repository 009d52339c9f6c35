// Package common contains shared constants and sentinel errors used across
// task manager components.
package common

// AuthorizationHeaderName is the gRPC metadata key carrying the bearer
// session assertion on protected calls.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the assertion inside the authorization header.
const BearerPrefix = "Bearer "
