// Package auth verifies administrator credentials and signs the session
// cookie.
//
// Principals are usernames mapped to bcrypt hashes, normally a single entry
// built from ADMIN_USER and ADMIN_HASH. The session cookie holds an HS256
// JWT whose only custom claim is the session id:
//
//	tok, err := auth.GenerateToken(sessionID, key, 30*24*time.Hour)
//	sid, err := auth.GetSessionIDFromToken(tok, key)
package auth
