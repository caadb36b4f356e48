package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned for PEM input without a CERTIFICATE block.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// MinVersion is the lowest TLS version offered by server and client.
const MinVersion = tls.VersionTLS12

// LoadKeyPair reads a PEM certificate chain and key and parses the leaf.
func LoadKeyPair(certFile, keyFile string) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("tlsroots: parse leaf: %w", err)
		}
		cert.Leaf = leaf
	}
	return &cert, nil
}

// ServerConfig returns a server config presenting a fixed key pair.
func ServerConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   MinVersion,
	}, nil
}

// AppendPEM adds every CERTIFICATE block of data to pool and returns how
// many it added. Other block types are skipped.
func AppendPEM(pool *x509.CertPool, data []byte) (int, error) {
	n := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return n, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		n++
	}
	if n == 0 {
		return 0, ErrNoCertsFound
	}
	return n, nil
}

// ClientOptions controls what a client trusts and verifies.
type ClientOptions struct {
	// CAFiles are PEM bundles trusted in addition to the roots.
	CAFiles []string
	// NoSystemRoots starts from an empty pool instead of the system one.
	NoSystemRoots bool
	// ServerName overrides the name checked against the certificate.
	// Empty uses the dialed host.
	ServerName string
	// Insecure skips certificate verification entirely.
	Insecure bool
}

// ClientConfig builds the CLI's TLS config.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	var pool *x509.CertPool
	if !opts.NoSystemRoots {
		// A missing system pool is not fatal; CA files may still be given.
		pool, _ = x509.SystemCertPool()
	}
	if pool == nil {
		pool = x509.NewCertPool()
	}

	for _, f := range opts.CAFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read CA file: %w", err)
		}
		if _, err := AppendPEM(pool, data); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
	}

	return &tls.Config{
		RootCAs:            pool,
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.Insecure,
		MinVersion:         MinVersion,
	}, nil
}
