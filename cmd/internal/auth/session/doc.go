// Package session implements the ScribeAssist session-token lifecycle.
//
// Tokens are HS256 JWTs carried in an http-only cookie. They bind a subject
// and its role to a fixed lifetime and have no server-side representation:
// validity is computed from the token and the clock alone.
//
// Guard provides the two interceptors every protected route is wrapped in.
// Require verifies the cookie and short-circuits on failure. Renew reissues
// the cookie when the token is close to expiry (sliding renewal).
package session
