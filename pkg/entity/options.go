package entity

import (
	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/redbco/redb-datasync/pkg/logger"
)

type settings struct {
	query      datasource.Criterion
	url        string
	name       string
	id         string
	attributes map[string]interface{}
	records    []map[string]interface{}
	log        *logger.Logger
}

// Option configures an Entity or Collection.
type Option func(*settings)

// WithQuery sets the standing criterion used when a call supplies none.
func WithQuery(query datasource.Criterion) Option {
	return func(s *settings) {
		s.query = query
	}
}

// WithURL overrides the URL otherwise taken from the data source.
func WithURL(url string) Option {
	return func(s *settings) {
		s.url = url
	}
}

// WithName sets the collection name the object represents and binds it on
// the data source.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithID sets the entity identifier.
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithAttributes seeds an Entity's attributes.
func WithAttributes(attrs map[string]interface{}) Option {
	return func(s *settings) {
		s.attributes = attrs
	}
}

// WithRecords seeds a Collection's items.
func WithRecords(records ...map[string]interface{}) Option {
	return func(s *settings) {
		s.records = records
	}
}

// WithLogger sets the logger. The package default is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

func applyOptions(opts ...Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	return s
}
