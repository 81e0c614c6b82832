package resource

import (
	"net/http"

	"github.com/redbco/redb-datasync/pkg/logger"
)

// URLFunc produces a URL at call time.
type URLFunc func() string

type settings struct {
	url         URLFunc
	secure      bool
	id          string
	httpClient  *http.Client
	httpsClient *http.Client
	attributes  map[string]interface{}
	log         *logger.Logger
}

// Option configures a Resource or Collection.
type Option func(*settings)

// WithURLFunc computes the URL on every call instead of using a fixed one.
func WithURLFunc(fn URLFunc) Option {
	return func(s *settings) {
		s.url = fn
	}
}

// WithSecure selects HTTPS.
func WithSecure(secure bool) Option {
	return func(s *settings) {
		s.secure = secure
	}
}

// WithID sets the resource identifier.
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithHTTPClient sets the client used for plain HTTP calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithHTTPSClient sets the client used when the resource is secure.
func WithHTTPSClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpsClient = c
	}
}

// WithAttributes seeds a Resource's attributes.
func WithAttributes(attrs map[string]interface{}) Option {
	return func(s *settings) {
		s.attributes = attrs
	}
}

// WithLogger sets the logger. The package default is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

func applyOptions(url string, opts ...Option) settings {
	s := settings{}
	if url != "" {
		s.url = staticURL(url)
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.httpsClient == nil {
		s.httpsClient = http.DefaultClient
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	return s
}

func staticURL(url string) URLFunc {
	return func() string { return url }
}
