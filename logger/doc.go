// Package logger provides structured logging on top of zerolog.
//
// Loggers are created from a Config (level, format, output) and scoped to a
// component with WithComponent. Fields are passed as maps, usually built with
// Fields:
//
//	log := logger.New(&logger.Config{Level: "debug", Format: "json"}, "http4s").
//	    WithComponent("httpclient")
//	log.Warn("outgoing body failed", logger.Fields("call_id", id, "error", err.Error()))
package logger
