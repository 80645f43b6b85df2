// Package issuing mints signed JWT bearer tokens for username/password
// credentials.
//
// Settings are assembled once at startup with the Options builder and are
// read-only afterwards. The Middleware intercepts POST requests to the
// configured endpoint, resolves the credentials to claims through a
// claims.Resolver, and answers with a signed token. Every other request is
// passed through to the next handler untouched.
//
// Wire contract of the issuance endpoint:
//
//	POST <endpoint> {"login": "...", "password": "..."}
//	200 application/json {"token": "...", "expirationDate": "2006-01-02T15:04:05Z" | null}
//	400 empty body          wrong method, malformed body, blank login or password
//	404 text/plain message  unknown login
//	403 text/plain message  wrong password
//
// Resolver failures other than the two named outcomes are handed to the
// configured ErrorHandler, which by default logs them and answers 500.
package issuing
