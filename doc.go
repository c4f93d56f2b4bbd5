// Package auth implements user authentication with session-bound refresh
// tokens: registration, credential verification, access/refresh token
// issuance, persisted session tracking, an in-process revocation registry
// for access tokens, and password reset/change flows.
//
// The core is transport agnostic; a fiber based JSON controller is
// provided for applications that want the full HTTP surface.
package auth
