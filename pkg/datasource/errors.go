package datasource

import (
	"errors"
	"fmt"
)

// Standard data source errors
var (
	// ErrConnectionFailed is returned when the backend cannot be reached
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNoClient is returned when an adapter that needs a native client has none
	ErrNoClient = errors.New("no client was passed")

	// ErrNotConnected is returned when an operation runs without a connection or collection
	ErrNotConnected = errors.New("no collection defined or not connected to db")

	// ErrOperationFailed is returned when the native client reports a failure
	ErrOperationFailed = errors.New("backend operation failed")

	// ErrOperationNotSupported is returned by the null data source
	ErrOperationNotSupported = errors.New("operation not supported by this data source")

	// ErrNoData is returned when a read yields no usable record
	ErrNoData = errors.New("no data returned")

	// ErrNoDataSource is returned when a domain object has no data source configured
	ErrNoDataSource = errors.New("no datasource")

	// ErrInvalidUpdate is returned when update data is not a single record
	ErrInvalidUpdate = errors.New("update data must be a record")

	// ErrUnknownMethod is returned when a sync verb is not create, read, update or delete
	ErrUnknownMethod = errors.New("unknown sync method")
)

// ConnectionError is returned when a connection attempt fails.
type ConnectionError struct {
	Type  Type
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %q: %v", e.Type, e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(typ Type, url string, cause error) *ConnectionError {
	return &ConnectionError{Type: typ, URL: url, Cause: cause}
}

// NotConnectedError reports a failed guard clause: the adapter was not
// connected or had no collection bound when an operation ran.
type NotConnectedError struct {
	Type       Type
	Operation  string
	Connected  bool
	Collection string
}

// Error implements the error interface.
func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("[%s] %s: %v (connected=%t, collection=%q)",
		e.Type, e.Operation, ErrNotConnected, e.Connected, e.Collection)
}

// Is checks if the error is ErrNotConnected.
func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}

// NewNotConnectedError creates a new NotConnectedError.
func NewNotConnectedError(typ Type, operation string, connected bool, collection string) *NotConnectedError {
	return &NotConnectedError{
		Type:       typ,
		Operation:  operation,
		Connected:  connected,
		Collection: collection,
	}
}

// OperationError wraps a failure reported by a native client.
type OperationError struct {
	Type      Type
	Operation string
	Cause     error
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s: %v (context: %v)", e.Type, e.Operation, e.Cause, e.Context)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrOperationFailed as well as anything the cause matches.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// WithContext adds context to an OperationError.
func (e *OperationError) WithContext(key string, value interface{}) *OperationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewOperationError creates a new OperationError.
func NewOperationError(typ Type, operation string, cause error) *OperationError {
	return &OperationError{Type: typ, Operation: operation, Cause: cause}
}

// WrapError wraps err as an OperationError unless it already is one.
func WrapError(typ Type, operation string, err error) error {
	if err == nil {
		return nil
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}

	return NewOperationError(typ, operation, err)
}

// UnknownMethodError is returned when Sync is called with an unrecognized verb.
type UnknownMethodError struct {
	Method string
}

// Error implements the error interface.
func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownMethod, e.Method)
}

// Is checks if the error is ErrUnknownMethod.
func (e *UnknownMethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsNotConnected checks if an error came from a failed guard clause.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsOperationError checks if an error was reported by a native client.
func IsOperationError(err error) bool {
	return errors.Is(err, ErrOperationFailed)
}
