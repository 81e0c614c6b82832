package elasticsearch

import (
	"fmt"
	"net/url"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewClient builds a cluster client for rawURL. Credentials in the URL are
// moved into the client configuration.
func NewClient(rawURL string) (*elasticsearch.Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	cfg := elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("%s://%s", u.Scheme, u.Host)},
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}
	return esClient, nil
}
