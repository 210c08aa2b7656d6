package feed

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Session is an HTTP client carrying the cookies the feed hands out between
// polls. It is never repaired in place: after a failure the owner replaces it.
type Session struct {
	client     *http.Client
	generation int
	createdAt  time.Time
}

// NewSession creates a session with an empty cookie jar
func NewSession(timeout time.Duration, generation int) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		generation: generation,
		createdAt:  time.Now(),
	}, nil
}

// Do sends the request with the session's cookies, following redirects
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	return s.client.Do(req)
}

// Generation counts how many sessions the owner has created, starting at 1
func (s *Session) Generation() int {
	return s.generation
}

// Age is how long the session has been in use
func (s *Session) Age() time.Duration {
	return time.Since(s.createdAt)
}
