// Package security holds the TLS settings used by the engine's connection
// pool.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//	tlsConfig, err := cfg.Build("h2", "http/1.1")
package security
