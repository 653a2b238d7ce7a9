// Package engine defines the native, callback-driven transport the client
// adapts, and ships a default implementation on net/http.
//
// A Transport hands out Calls. A Call is enqueued with a Callback and fires
// exactly one of OnResponse or OnFailure, exactly once, on a goroutine owned
// by the transport's Dispatcher. Outgoing bodies are push-style: the
// transport calls RequestBody.WriteTo with a Sink on its own I/O goroutine.
// Incoming bodies are a ByteSource the receiver must close.
//
// The transport owns three independently disposable resources: the
// Dispatcher, the ConnectionPool and an optional Cache.
package engine
