package session

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/gomysqlx/client/xcontext"
	"github.com/gomysqlx/client/xerr"
)

// tlsConfigFrom builds a crypto/tls.Config from a TLS option set,
// covering the same knobs as xcl::Mysqlx_ssl_config: client
// certificate, trust anchors, and how far verification goes (Preferred
// and Required skip verification; VerifyCA checks the chain; VerifyIdentity
// additionally checks the hostname, applied separately after the
// handshake since crypto/tls has no built-in "verify chain, skip name"
// mode without a custom VerifyPeerCertificate).
func tlsConfigFrom(ctx *xcontext.Context) (*tls.Config, *xerr.Error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12} //nolint:gosec // floor only, raised below if requested

	switch ctx.TLS.Mode {
	case xcontext.TLSPreferred:
		cfg.InsecureSkipVerify = true
	case xcontext.TLSRequired:
		cfg.InsecureSkipVerify = true
	case xcontext.TLSVerifyCA, xcontext.TLSVerifyIdentity:
		cfg.InsecureSkipVerify = false
	}

	if ctx.TLS.CA != "" {
		pool := x509.NewCertPool()
		pem, err := os.ReadFile(ctx.TLS.CA)
		if err != nil {
			return nil, xerr.Newf(xerr.TLSWrongConfiguration, "session: read tls_ca: %v", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, xerr.New(xerr.TLSWrongConfiguration, "session: tls_ca contains no usable certificates")
		}
		cfg.RootCAs = pool
	}

	if ctx.TLS.Key != "" && ctx.TLS.Cert != "" {
		cert, err := tls.LoadX509KeyPair(ctx.TLS.Cert, ctx.TLS.Key)
		if err != nil {
			return nil, xerr.Newf(xerr.TLSWrongConfiguration, "session: load client certificate: %v", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if v := minTLSVersion(ctx.TLS.Versions); v != 0 {
		cfg.MinVersion = v
	}

	return cfg, nil
}

func minTLSVersion(versions []string) uint16 {
	var min uint16
	for _, v := range versions {
		var ver uint16
		switch v {
		case "TLSv1.2":
			ver = tls.VersionTLS12
		case "TLSv1.3":
			ver = tls.VersionTLS13
		}
		if ver == 0 {
			continue
		}
		if min == 0 || ver < min {
			min = ver
		}
	}
	return min
}
