package benchmark

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"runtime"
	"testing"
	"time"
)

// RequestLines are representative requests, one per command.
var RequestLines = map[string]string{
	"add":   "GET /add/1234/5678 HTTP/1.1",
	"hello": "GET /hello/12 HTTP/1.1",
	"json":  "GET /json HTTP/1.1",
	"help":  "GET /help HTTP/1.1",
	"post":  "POST /data/alpha/beta/gamma HTTP/1.1",
	"short": "GET /",
}

// WorkerCounts defines the pool sizes for benchmarking.
var WorkerCounts = []int{1, 5, 16, 64}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithWorkerCounts runs a benchmark function with various pool sizes.
func runWithWorkerCounts(b *testing.B, counts []int, benchFn func(b *testing.B, workers int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("workers_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}

// selfSignedConfig returns a server TLS config for 127.0.0.1.
func selfSignedConfig(b *testing.B) *tls.Config {
	b.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		b.Fatalf("GenerateKey() error = %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "bench"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		b.Fatalf("CreateCertificate() error = %v", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
		MinVersion:   tls.VersionTLS12,
	}
}
