package security

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/jmcardon/http4s/validation"
)

// TLSConfig holds the client-side TLS settings of the engine's connections.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is a PEM bundle of roots trusted for server certificates.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// AppendSystemRoots adds CAFile to the system pool instead of replacing it.
	AppendSystemRoots bool `yaml:"append_system_roots" mapstructure:"append_system_roots"`

	// CertFile and KeyFile are the client certificate for mutual TLS.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is "1.2" or "1.3". Defaults to 1.2.
	MinVersion string `yaml:"min_version" mapstructure:"min_version" validate:"omitempty,oneof=1.2 1.3"`
}

var errCertKeyPair = errors.New("security/tls: cert_file and key_file must be set together")

// Build returns a *tls.Config advertising nextProtos, or nil when c is nil
// or empty so the transport keeps its defaults.
func (c *TLSConfig) Build(nextProtos ...string) (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in via config
		ServerName:         c.ServerName,
		MinVersion:         minVersion(c.MinVersion),
		NextProtos:         nextProtos,
	}
	roots, err := c.rootCAs()
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = roots

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("security/tls: %w", err)
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errCertKeyPair
	}
	return nil
}

// IsEnabled reports whether any setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && *c != TLSConfig{}
}

func minVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// rootCAs returns nil (system roots) when no CAFile is set.
func (c *TLSConfig) rootCAs() (*x509.CertPool, error) {
	if c.CAFile == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("security/tls: read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if c.AppendSystemRoots {
		if sys, err := x509.SystemCertPool(); err == nil {
			pool = sys
		}
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("security/tls: parse CA file %s: no certificates", c.CAFile)
	}
	return pool, nil
}
