package datasource

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/redbco/redb-datasync/pkg/logger"
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// ValidCollectionName reports whether name can be bound as a collection.
func ValidCollectionName(name string) bool {
	return collectionNamePattern.MatchString(name)
}

// ConnState is a snapshot of an adapter's connection state.
type ConnState struct {
	Connected  bool
	Style      Style
	URL        string
	Collection string
}

// Base holds the identity and connection state every adapter shares. Adapters
// embed it and keep their native handles next to it.
type Base struct {
	id  string
	typ Type
	log *logger.Logger

	mu    sync.RWMutex
	state ConnState
}

// NewBase creates the shared state for an adapter of the given type.
func NewBase(typ Type, style Style, opts Options) *Base {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Base{
		id:    uuid.NewString(),
		typ:   typ,
		log:   opts.Logger,
		state: ConnState{Style: style},
	}
}

// ID returns the adapter instance identifier.
func (b *Base) ID() string {
	return b.id
}

// Type returns the factory token of the adapter.
func (b *Base) Type() Type {
	return b.typ
}

// Logger returns the adapter logger.
func (b *Base) Logger() *logger.Logger {
	return b.log
}

// Style returns the current storage style.
func (b *Base) Style() Style {
	return b.State().Style
}

// URL returns the URL of the last successful connection.
func (b *Base) URL() string {
	return b.State().URL
}

// IsConnected reports whether the adapter is connected.
func (b *Base) IsConnected() bool {
	return b.State().Connected
}

// Collection returns the bound collection name.
func (b *Base) Collection() string {
	return b.State().Collection
}

// State returns a copy of the connection state.
func (b *Base) State() ConnState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Mutate applies fn to the connection state under the write lock.
func (b *Base) Mutate(fn func(s *ConnState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.state)
}

// Guard checks that the adapter is connected and has a collection bound. A
// failed guard is logged and returned as a *NotConnectedError.
func (b *Base) Guard(operation string) error {
	s := b.State()
	if s.Connected && s.Collection != "" {
		return nil
	}
	err := NewNotConnectedError(b.typ, operation, s.Connected, s.Collection)
	b.log.Error("%s", err.Error())
	return err
}

// GuardConnected checks only the connected flag, for backends whose store is
// the collection itself.
func (b *Base) GuardConnected(operation string) error {
	s := b.State()
	if s.Connected {
		return nil
	}
	err := NewNotConnectedError(b.typ, operation, s.Connected, s.Collection)
	b.log.Error("%s", err.Error())
	return err
}

// SafeCall runs a caller-supplied callback and turns a panic into an error so
// a misbehaving callback cannot take down the goroutine settling a future.
func SafeCall(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	fn()
	return nil
}
