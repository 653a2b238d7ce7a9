// Package message defines the abstract HTTP request and response model the
// client exposes to callers.
//
// Bodies are lazy, single-pass sequences of byte chunks
// (provider.Iterator[[]byte]). A Request body is pulled by the client while
// the transport writes it; a Response body is pulled by the caller and must
// be released through DisposableResponse.Dispose.
package message
