package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io/ioutil"

	"github.com/ground-x/blmessaging/auth"
)

// newCertAuthorizer builds an auth.Authorizer that treats a bearer
// token as a PEM-encoded client certificate, verifying it against the
// CA pool at caFile and yielding the certificate's common name as the
// authorized principal's subject. spec §4.4 leaves the upstream
// authorization service's transport unspecified; this is the one
// self-contained implementation that needs no separate network call,
// matching a gateway that only carries a single "verify-root-ca" trust
// anchor flag. Certificate parsing and chain verification are
// necessarily crypto/x509: no example repo in this retrieval pack
// carries a third-party X.509 verification library, and Go's own is
// the ecosystem-standard way to do this.
func newCertAuthorizer(caFile string) (auth.Authorizer, error) {
	caPEM, err := ioutil.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("bl-gateway: reading verify-root-ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("bl-gateway: no certificates found in verify-root-ca file %q", caFile)
	}

	return func(token []byte) (auth.Principal, error) {
		block, _ := pem.Decode(token)
		if block == nil {
			return auth.Principal{}, fmt.Errorf("bl-gateway: token is not a PEM certificate")
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return auth.Principal{}, fmt.Errorf("bl-gateway: parsing token certificate: %w", err)
		}
		if _, err := cert.Verify(x509.VerifyOptions{Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny}}); err != nil {
			return auth.Principal{}, fmt.Errorf("bl-gateway: token certificate did not verify: %w", err)
		}
		return auth.Principal{Subject: cert.Subject.CommonName}, nil
	}, nil
}
