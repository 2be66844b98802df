// Package jwt issues and verifies the identity tokens handed out after a
// successful authentication. Tokens carry the account id as subject plus the
// username and role. They are stateless and never consulted by the engine.
package jwt
