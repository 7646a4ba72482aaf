// Package tlsconfig builds tls.Config values for the orchestrator's HTTPS
// listener and for clients connecting to it.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config describes the certificate material for one side of a connection.
type Config struct {
	// CertPath and KeyPath identify the certificate presented to the peer.
	CertPath string
	KeyPath  string

	// CAPath is the CA bundle used to verify the peer. For a server it is
	// optional: when set, client certificates are required and verified
	// against it (mTLS).
	CAPath string

	// ServerName is the expected server hostname; client side only.
	ServerName string

	// Server selects server-side semantics.
	Server bool
}

// Setup builds a TLS 1.3 tls.Config from the given certificate material.
func Setup(config *Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}

	if config.CertPath != "" || config.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load certificate: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	var caCertPool *x509.CertPool
	if config.CAPath != "" {
		caCert, err := os.ReadFile(config.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}

		caCertPool = x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA certificate: %s", config.CAPath)
		}
	}

	if config.Server {
		if caCertPool != nil {
			tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
			tlsConfig.ClientCAs = caCertPool
		}
	} else {
		tlsConfig.ServerName = config.ServerName
		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}
