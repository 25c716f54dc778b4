package quizlic

import (
	"github.com/gorilla/securecookie"
)

// sessionTokenName is the name the token is authenticated under; it doubles
// as the cookie name in the web layer.
const sessionTokenName = "quiz_session"

// SessionCodec turns a QuizSession into an opaque, HMAC-authenticated token
// for stateless client-side transport, and back. Clients cannot fabricate a
// score or skip ahead without breaking the signature.
type SessionCodec struct {
	sc *securecookie.SecureCookie
}

// NewSessionCodec creates a codec with the given keys. hashKey is required
// (32 or 64 bytes); blockKey additionally encrypts the payload and may be nil.
func NewSessionCodec(hashKey, blockKey []byte) *SessionCodec {
	sc := securecookie.New(hashKey, blockKey)
	// A 100-question session outgrows the 4 KB default. The upstream question
	// count cap keeps the token bounded.
	sc.MaxLength(1 << 16)
	return &SessionCodec{sc: sc}
}

// Encode serializes and signs the session.
func (c *SessionCodec) Encode(session *QuizSession) (string, error) {
	return c.sc.Encode(sessionTokenName, session)
}

// Decode returns the session carried by token. A missing, malformed, or
// tampered token is not an error: the caller gets a fresh empty session and
// the user effectively starts over.
func (c *SessionCodec) Decode(token string) *QuizSession {
	if token == "" {
		return NewQuizSession()
	}
	session := NewQuizSession()
	if err := c.sc.Decode(sessionTokenName, token, session); err != nil {
		VerboseLog("session token rejected: %v", err)
		return NewQuizSession()
	}
	return session
}
