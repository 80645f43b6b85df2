// Package claims defines the contract between the token issuance middleware
// and the store that knows who a caller is.
//
// A Resolver receives a login/password pair and answers with a Resolution:
// either the set of claims to embed in the token, or one of exactly two
// authentication failures (login not found, incorrect password). Anything
// else that goes wrong is returned as an error and treated by the caller as
// an unexpected fault, not as an authentication outcome.
//
// Concrete stores live in subpackages (memory, postgres, redis). They share
// the bcrypt helpers in password.go so a hash produced for one store is
// accepted by the others.
package claims
