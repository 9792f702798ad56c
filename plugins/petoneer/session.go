package petoneer

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// tokenType labels the vendor token; it travels in the "accessToken" header,
// not as a bearer token.
const tokenType = "accessToken"

// loginSource performs a username/password login for each token it mints.
type loginSource struct {
	ctx    context.Context
	client *Client
}

func (s loginSource) Token() (*oauth2.Token, error) {
	return s.client.login(s.ctx)
}

// session caches the access token. Vendor tokens carry no expiry, so the
// cached token lives until the API rejects it.
type session struct {
	client *Client

	mu  sync.Mutex
	src oauth2.TokenSource
}

func newSession(client *Client) *session {
	return &session{client: client}
}

// token returns the cached token, logging in with ctx when none is held.
func (s *session) token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	if s.src == nil {
		s.src = oauth2.ReuseTokenSource(nil, loginSource{ctx: ctx, client: s.client})
	}
	src := s.src
	s.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		s.invalidate()
		return nil, err
	}
	return tok, nil
}

func (s *session) invalidate() {
	s.mu.Lock()
	s.src = nil
	s.mu.Unlock()
}
