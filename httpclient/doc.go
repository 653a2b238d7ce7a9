// Package httpclient adapts a callback-driven engine.Transport to a single
// blocking, context-aware operation:
//
//	resp, err := client.Dispatch(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer resp.Dispose()
//	body, err := message.ReadAll(ctx, resp.Body)
//
// Outgoing bodies are pulled from the request's iterator while the transport
// writes them. Incoming bodies are read in chunks on a dedicated blocking
// executor and exposed as a provider.Iterator. Dispose releases the
// connection whether or not the body was read.
//
// Errors are *Error values classified by ErrorCode. A failure reported by
// the transport is a transport error; a response the abstract model cannot
// represent is a translation error. Cancellation returns ctx.Err().
//
// Teardown and Resource manage the transport's lifetime. Component wires
// the default engine, the blocking executor and the provider middlewares.
package httpclient
