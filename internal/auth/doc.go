// Package auth implements user accounts and token-based authentication
// for the PeluPrice backend.
//
// Passwords are hashed with Argon2id (PHC string format). Sessions use
// a short-lived HS256 JWT access token plus a long-lived opaque refresh
// token; refresh tokens are stored as SHA-256 hashes and rotated on
// every use. Rotation families enable reuse detection: presenting an
// already-consumed token revokes its whole family.
package auth
