// Package datasource provides the contract every storage backend implements.
//
// A DataSource lets a domain object persist itself without knowing which
// backend is in use. Every backend honours the same connection lifecycle, the
// same collection binding and the same four CRUD verbs.
//
// # Architecture
//
//   - DataSource: the capability interface all adapters implement
//   - Base: shared identity and connection state embedded by adapters
//   - Null: the base contract with every verb left at its default
//   - Criterion: a literal filter or a lazily evaluated thunk
//   - Registry: maps type tokens to adapter constructors
//
// # Usage
//
// Adapters register themselves from init, so importing the backend package is
// enough to make its token available:
//
//	import (
//	    "github.com/redbco/redb-datasync/pkg/datasource"
//	    _ "github.com/redbco/redb-datasync/pkg/datasource/memory"
//	)
//
//	ds := datasource.New("memory", nil)
//	if ds == nil {
//	    // unknown token
//	}
//
// Every operation returns a future. Synchronous backends return futures that
// are already settled, asynchronous backends return them pending:
//
//	ok, err := ds.Connect(ctx, "mem://local", "users").Wait(ctx)
//
//	_, err = ds.Insert(ctx, datasource.Record{"name": "x"}, nil).Wait(ctx)
//
//	records, err := ds.Query(ctx, datasource.Where(datasource.Record{"name": "x"}), nil).Wait(ctx)
//
// # Guard Clauses
//
// Every CRUD verb first checks that the adapter is connected and has a
// collection bound. A failed guard is logged and the future is rejected with
// a *NotConnectedError; the onDone callback is not invoked.
//
// # Error Handling
//
//   - ConnectionError: backend unreachable or no native client
//   - NotConnectedError: guard clause failed
//   - OperationError: the native client reported a failure
//   - UnknownMethodError: a sync verb outside create/read/update/delete
//
// Use errors.Is with the sentinel errors, or the IsConnectionError,
// IsNotConnected and IsOperationError helpers.
//
// # Thread Safety
//
// Adapters protect their connection state with a mutex and may be shared by
// many domain objects. Sharing is deliberate: Close from one holder is seen by
// all holders.
package datasource
