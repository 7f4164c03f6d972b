package scraper

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// session is the time-bounded cookie state that makes request sequences look
// like one continuous browsing session. Only ensureSession/invalidateSession
// touch it, under sessionMu.
type session struct {
	cookie     string
	acquiredAt time.Time
}

// ensureSession returns the current session cookie, bootstrapping a fresh
// session when none exists or the TTL window has elapsed. A failed bootstrap
// is not fatal: requests proceed without a cookie and the next call retries.
func (f *Fetcher) ensureSession(ctx context.Context) string {
	f.sessionMu.Lock()
	defer f.sessionMu.Unlock()

	if f.session != nil && time.Since(f.session.acquiredAt) < f.sessionTTL {
		return f.session.cookie
	}

	cookie, err := f.bootstrapSession(ctx)
	if err != nil {
		log.Printf("[scraper] session bootstrap failed: %v", err)
		return ""
	}
	f.session = &session{cookie: cookie, acquiredAt: time.Now()}
	return cookie
}

// invalidateSession drops the session so the next call reacquires one. Called
// after a fetch exhausted its retry budget.
func (f *Fetcher) invalidateSession() {
	f.sessionMu.Lock()
	f.session = nil
	f.sessionMu.Unlock()
}

// bootstrapSession performs a browser-realistic request against the landing
// page and captures whatever cookies the source hands out.
func (f *Fetcher) bootstrapSession(ctx context.Context) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgents[0])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	var pairs []string
	for _, c := range resp.Cookies() {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}
