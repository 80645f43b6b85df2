// Package auth guards resource endpoints with bearer credentials.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default decides when
// all authenticators abstain.
//
// The guard is a pipeline stage. Authenticated identities are stored in the
// request context; endpoints on the bypass list, such as health checks and
// the token endpoint itself, are served without credentials. There is no
// permission evaluation: any authenticated caller is let through.
package auth
