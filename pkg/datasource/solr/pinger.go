package solr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Pinger checks that a search core answers at a base URL.
type Pinger interface {
	Ping(ctx context.Context, baseURL string) error
}

// HTTPPinger pings {baseURL}/admin/ping over HTTP. Credentials embedded in
// the URL are sent as basic auth.
type HTTPPinger struct {
	client *http.Client
}

// NewHTTPPinger returns a Pinger over client, or over a client with a ten
// second timeout when client is nil.
func NewHTTPPinger(client *http.Client) *HTTPPinger {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPPinger{client: client}
}

// Ping implements Pinger.
func (p *HTTPPinger) Ping(ctx context.Context, baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	var username, password string
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/admin/ping"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	if username != "" {
		req.SetBasicAuth(username, password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping failed with status: %s", resp.Status)
	}
	return nil
}
