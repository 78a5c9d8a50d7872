// Package identity handles operator authentication: bcrypt password
// verification, JWT session tokens, and revocation through the sessions
// table.
package identity
