// Package tls builds the server TLS configuration for the GraphQL endpoint.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// DefaultValidFor is the lifetime of a generated certificate.
const DefaultValidFor = 365 * 24 * time.Hour

// Config holds TLS configuration options. TLS is off unless a certificate
// pair is named or SelfSigned is set.
type Config struct {
	CertFile string `yaml:"certFile" json:"certFile,omitempty"`
	KeyFile  string `yaml:"keyFile" json:"keyFile,omitempty"`
	// CAFile enables client certificate verification.
	CAFile string `yaml:"caFile" json:"caFile,omitempty"`

	SelfSigned bool          `yaml:"selfSigned" json:"selfSigned,omitempty"`
	Hosts      []string      `yaml:"hosts" json:"hosts,omitempty"`
	ValidFor   time.Duration `yaml:"validFor" json:"validFor,omitempty"`
}

// Enabled reports whether the server should listen with TLS.
func (c Config) Enabled() bool {
	return c.CertFile != "" || c.KeyFile != "" || c.SelfSigned
}

// Validate checks the certificate pair is complete.
func (c Config) Validate() error {
	return validation.NewConfigValidator("tls").
		When(c.KeyFile != "", func(cv *validation.ConfigValidator) {
			cv.Required("certFile", c.CertFile)
		}).
		When(c.CertFile != "", func(cv *validation.ConfigValidator) {
			cv.Required("keyFile", c.KeyFile)
		}).
		Custom("validFor", func() error {
			if c.ValidFor < 0 {
				return errors.New("must not be negative")
			}
			return nil
		}).
		Validate()
}

// ServerConfig loads or generates the server certificate. It returns nil
// when TLS is disabled.
func ServerConfig(c Config) (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var cert tls.Certificate
	var err error
	if c.CertFile != "" {
		cert, err = tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
		}
	} else {
		cert, err = GenerateSelfSignedCert(c.Hosts, c.ValidFor)
		if err != nil {
			return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
		}
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: SecureCipherSuites(),
	}
	if c.CAFile != "" {
		pool, err := LoadCAPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// LoadCAPool loads a CA certificate pool from a file
func LoadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate %s", caFile)
	}
	return pool, nil
}

// SecureCipherSuites returns the TLS 1.2 suites the server accepts. TLS 1.3
// suites are not configurable.
func SecureCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	}
}
