// Package session opens data sources for the datasync command line from
// configuration and parses the JSON arguments its commands accept.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redbco/redb-datasync/pkg/config"
	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/datasource/elasticsearch"
	_ "github.com/redbco/redb-datasync/pkg/datasource/memory"
	"github.com/redbco/redb-datasync/pkg/datasource/mongodb"
	"github.com/redbco/redb-datasync/pkg/datasource/solr"
	"github.com/redbco/redb-datasync/pkg/logger"
	"golang.org/x/term"
)

// Settings describe the data source a command works against.
type Settings struct {
	Type       datasource.Type
	URL        string
	Collection string
	Timeout    time.Duration
	Logger     *logger.Logger
}

// SettingsFromConfig reads the datasource.* keys.
func SettingsFromConfig(c *config.Config) Settings {
	return Settings{
		Type:       datasource.Type(strings.ToLower(c.Get(config.KeyDataSourceType))),
		URL:        c.Get(config.KeyDataSourceURL),
		Collection: c.Get(config.KeyDataSourceCollection),
		Timeout:    c.GetDuration(config.KeyDataSourceTimeout, 10*time.Second),
	}
}

// NativeClient builds the client the adapter for typ needs.
func NativeClient(typ datasource.Type, url string) (interface{}, error) {
	switch typ {
	case datasource.TypeMongoDB:
		return mongodb.NewDriverClient(), nil
	case datasource.TypeSolr:
		return solr.NewHTTPPinger(nil), nil
	case datasource.TypeElasticsearch:
		return elasticsearch.NewClient(url)
	default:
		return nil, nil
	}
}

// Open creates the adapter for s and waits for its connection.
func Open(ctx context.Context, s Settings) (datasource.DataSource, error) {
	if !datasource.GlobalRegistry().IsRegistered(s.Type) {
		return nil, fmt.Errorf("unknown datasource type %q (known: %v)", s.Type, datasource.Types())
	}

	client, err := NativeClient(s.Type, s.URL)
	if err != nil {
		return nil, err
	}

	var opts []datasource.Option
	if s.Logger != nil {
		opts = append(opts, datasource.WithLogger(s.Logger))
	}
	ds := datasource.New(string(s.Type), client, opts...)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ok, err := ds.Connect(ctx, s.URL, s.Collection).Wait(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s datasource did not connect to %s", s.Type, s.URL)
	}
	return ds, nil
}

// ParseCriterion parses a JSON object into a field filter. An empty string
// matches everything.
func ParseCriterion(s string) (datasource.Criterion, error) {
	if strings.TrimSpace(s) == "" {
		return datasource.Criterion{}, nil
	}
	var rec datasource.Record
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return datasource.Criterion{}, fmt.Errorf("invalid filter: %w", err)
	}
	return datasource.Where(rec), nil
}

// ParsePayload parses a JSON object into a Record or a JSON array of objects
// into a []Record.
func ParsePayload(s string) (interface{}, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errors.New("empty payload")
	}

	if strings.HasPrefix(trimmed, "[") {
		var recs []datasource.Record
		if err := json.Unmarshal([]byte(trimmed), &recs); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return recs, nil
	}

	var rec datasource.Record
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return rec, nil
}

// WriteJSON writes v as JSON, indented when w is a terminal.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
