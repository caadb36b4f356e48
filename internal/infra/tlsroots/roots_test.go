package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadKeyPair(t *testing.T) {
	certFile, keyFile := writeKeyPair(t, t.TempDir(), 7)

	cert, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}
	if cert.Leaf == nil {
		t.Fatal("Leaf not parsed")
	}
	if cert.Leaf.SerialNumber.Int64() != 7 {
		t.Errorf("serial = %v, want 7", cert.Leaf.SerialNumber)
	}

	if _, err := LoadKeyPair(certFile, filepath.Join(t.TempDir(), "absent.key")); err == nil {
		t.Error("LoadKeyPair() should fail for a missing key")
	}
}

func TestServerConfig(t *testing.T) {
	certFile, keyFile := writeKeyPair(t, t.TempDir(), 1)

	cfg, err := ServerConfig(certFile, keyFile)
	if err != nil {
		t.Fatalf("ServerConfig() error = %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("len(Certificates) = %d, want 1", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
}

func TestServerConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	if err := os.WriteFile(certFile, []byte("invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, []byte("invalid"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ServerConfig(certFile, keyFile); err == nil {
		t.Error("ServerConfig() should reject garbage PEM")
	}
}

func TestAppendPEM(t *testing.T) {
	a, keyPEM := selfSigned(t, 1)
	b, _ := selfSigned(t, 2)

	tests := []struct {
		name    string
		data    []byte
		want    int
		wantErr error
	}{
		{"one", a, 1, nil},
		{"bundle", append(append([]byte{}, a...), b...), 2, nil},
		{"key skipped", append(append([]byte{}, keyPEM...), a...), 1, nil},
		{"empty", nil, 0, ErrNoCertsFound},
		{"key only", keyPEM, 0, ErrNoCertsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := AppendPEM(x509.NewCertPool(), tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AppendPEM() error = %v, want %v", err, tt.wantErr)
			}
			if n != tt.want {
				t.Errorf("AppendPEM() = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestAppendPEM_BadCertificate(t *testing.T) {
	bad := []byte("-----BEGIN CERTIFICATE-----\naW52YWxpZA==\n-----END CERTIFICATE-----\n")
	if _, err := AppendPEM(x509.NewCertPool(), bad); err == nil || errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AppendPEM() error = %v, want a parse error", err)
	}
}

func TestClientConfig(t *testing.T) {
	certFile, _ := writeKeyPair(t, t.TempDir(), 1)

	cfg, err := ClientConfig(ClientOptions{
		CAFiles:    []string{certFile},
		ServerName: "tlsrest.local",
		Insecure:   true,
	})
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs is nil")
	}
	if cfg.ServerName != "tlsrest.local" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = false")
	}
	if cfg.MinVersion != MinVersion {
		t.Errorf("MinVersion = %x", cfg.MinVersion)
	}

	if _, err := ClientConfig(ClientOptions{CAFiles: []string{filepath.Join(t.TempDir(), "none.pem")}}); err == nil {
		t.Error("ClientConfig() should fail for a missing CA file")
	}
}

func TestHandshake_TrustedCAFile(t *testing.T) {
	certFile, keyFile := writeKeyPair(t, t.TempDir(), 1)

	serverCfg, err := ServerConfig(certFile, keyFile)
	if err != nil {
		t.Fatalf("ServerConfig() error = %v", err)
	}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverCfg)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				_ = c.(*tls.Conn).Handshake()
			}()
		}
	}()

	tests := []struct {
		name    string
		opts    ClientOptions
		wantErr bool
	}{
		{"trusted", ClientOptions{CAFiles: []string{certFile}, NoSystemRoots: true, ServerName: "localhost"}, false},
		{"untrusted", ClientOptions{NoSystemRoots: true, ServerName: "localhost"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ClientConfig(tt.opts)
			if err != nil {
				t.Fatalf("ClientConfig() error = %v", err)
			}
			c, err := tls.Dial("tcp", ln.Addr().String(), cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Dial() error = %v, wantErr %v", err, tt.wantErr)
			}
			if c != nil {
				c.Close()
			}
		})
	}
}
