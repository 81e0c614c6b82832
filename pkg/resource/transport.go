package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/future"
	"github.com/redbco/redb-datasync/pkg/logger"
	"github.com/redbco/redb-datasync/pkg/model"
)

// Result is the outcome of a successful sync.
type Result struct {
	Status  int
	Message string
}

// Options carries the result callbacks. Exactly one of them is invoked,
// once, before the returned future settles.
type Options struct {
	Success func(status int, message string)
	Error   func(status int, err error)
}

var httpMethods = map[model.Method]string{
	model.MethodCreate: http.MethodPost,
	model.MethodRead:   http.MethodGet,
	model.MethodUpdate: http.MethodPut,
	model.MethodDelete: http.MethodDelete,
}

// transport is the URL and client selection shared by Resource and
// Collection.
type transport struct {
	mu          sync.RWMutex
	url         URLFunc
	secure      bool
	httpClient  *http.Client
	httpsClient *http.Client
	log         *logger.Logger
}

func newTransport(s settings) *transport {
	return &transport{
		url:         s.url,
		secure:      s.secure,
		httpClient:  s.httpClient,
		httpsClient: s.httpsClient,
		log:         s.log,
	}
}

// SetURL sets a fixed URL.
func (t *transport) SetURL(u string) {
	t.SetURLFunc(staticURL(u))
}

// SetURLFunc sets a URL computed on every call.
func (t *transport) SetURLFunc(fn URLFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.url = fn
}

// URL returns the current URL, or "" when none is set.
func (t *transport) URL() string {
	t.mu.RLock()
	fn := t.url
	t.mu.RUnlock()
	if fn == nil {
		return ""
	}
	return fn()
}

// SetSecure selects HTTPS for subsequent calls.
func (t *transport) SetSecure(secure bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.secure = secure
}

// IsSecure reports whether calls use HTTPS.
func (t *transport) IsSecure() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.secure
}

func (t *transport) target() (*http.Client, string, error) {
	raw := t.URL()
	if raw == "" {
		return nil, "", ErrNoURL
	}

	t.mu.RLock()
	secure := t.secure
	client := t.httpClient
	if secure {
		client = t.httpsClient
	}
	t.mu.RUnlock()

	target, err := withScheme(raw, secure)
	if err != nil {
		return nil, "", err
	}
	return client, target, nil
}

// withScheme applies the scheme the secure flag selects. URLs with a
// non-HTTP scheme are left alone.
func withScheme(raw string, secure bool) (string, error) {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	if !strings.Contains(raw, "://") {
		return scheme + "://" + strings.TrimPrefix(raw, "//"), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		u.Scheme = scheme
	}
	return u.String(), nil
}

// run issues the request for method. body supplies the JSON payload for
// create and update; apply receives the body of a successful read.
func (t *transport) run(ctx context.Context, method model.Method, opts Options, body func() ([]byte, error), apply func([]byte) error) *future.Future[Result] {
	out := future.New[Result]()
	var once sync.Once
	finish := func(res Result, err error) {
		once.Do(func() {
			t.notify(method, opts, res, err)
			out.Settle(res, err)
		})
	}

	httpMethod, ok := httpMethods[method]
	if !ok {
		finish(Result{}, &datasource.UnknownMethodError{Method: string(method)})
		return out
	}

	client, target, err := t.target()
	if err != nil {
		if errors.Is(err, ErrNoURL) {
			t.log.Warn("no url")
		}
		finish(Result{}, err)
		return out
	}
	t.log.Debug("sync %s", method)

	var payload []byte
	if method == model.MethodCreate || method == model.MethodUpdate {
		if payload, err = body(); err != nil {
			finish(Result{}, err)
			return out
		}
	}
	if method != model.MethodRead {
		apply = nil
	}

	go func() {
		finish(t.do(ctx, client, httpMethod, target, payload, apply))
	}()
	return out
}

func (t *transport) do(ctx context.Context, client *http.Client, method, target string, payload []byte, apply func([]byte) error) (Result, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Result{}, &TransportError{Method: method, URL: target, Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.log.Error("problem with request: %v", err)
		return Result{Status: http.StatusInternalServerError}, &TransportError{Method: method, URL: target, Cause: err}
	}
	defer resp.Body.Close()

	res := Result{Status: resp.StatusCode, Message: statusMessage(resp)}
	t.log.Debug("Status: %d", resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.log.Error("problem reading response: %v", err)
		return res, &TransportError{Method: method, URL: target, Cause: err}
	}
	t.log.Debug("Body: %s", data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, &StatusError{Method: method, URL: target, Status: resp.StatusCode, Message: res.Message}
	}

	if apply != nil {
		if err := apply(data); err != nil {
			return res, &DeserializationError{URL: target, Status: resp.StatusCode, Cause: err}
		}
	}
	return res, nil
}

func (t *transport) notify(method model.Method, opts Options, res Result, err error) {
	if err != nil {
		t.log.Debug("sync %s failed: %v", method, err)
		if opts.Error == nil {
			return
		}
		if perr := datasource.SafeCall(func() { opts.Error(StatusCode(err), err) }); perr != nil {
			t.log.Error("error callback for %s: %v", method, perr)
		}
		return
	}
	if opts.Success == nil {
		return
	}
	if perr := datasource.SafeCall(func() { opts.Success(res.Status, res.Message) }); perr != nil {
		t.log.Error("success callback for %s: %v", method, perr)
	}
}

func statusMessage(resp *http.Response) string {
	msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return msg
}
