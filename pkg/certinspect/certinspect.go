// package certinspect reports the validity window of the client
// certificate held by a kubeconfig credential. Inspection is diagnostic
// only: callers are expected to log failures and carry on.
package certinspect

import (
	"errors"
	"fmt"
	"os"
	"time"

	"k8s.io/client-go/tools/clientcmd/api"
	certutil "k8s.io/client-go/util/cert"
)

// ErrNoCertificate is returned for credentials that authenticate with a
// token, exec plugin or basic auth rather than a client certificate.
var ErrNoCertificate = errors.New("credential has no client certificate")

// Report holds the validity window of a client certificate.
type Report struct {
	Subject   string
	Issuer    string
	NotBefore time.Time
	NotAfter  time.Time
}

func (r Report) Expired(now time.Time) bool {
	return now.After(r.NotAfter)
}

func (r Report) NotYetValid(now time.Time) bool {
	return now.Before(r.NotBefore)
}

// Inspect parses the client certificate of a kubeconfig credential.
// Inline certificate data takes precedence over a certificate file path.
// When the certificate is a chain, the leaf is reported.
func Inspect(user *api.AuthInfo) (*Report, error) {
	data := user.ClientCertificateData
	if len(data) == 0 && user.ClientCertificate != "" {
		var err error
		data, err = os.ReadFile(user.ClientCertificate)
		if err != nil {
			return nil, fmt.Errorf("reading client certificate: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrNoCertificate
	}

	certs, err := certutil.ParseCertsPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing client certificate: %w", err)
	}

	leaf := certs[0]
	return &Report{
		Subject:   leaf.Subject.String(),
		Issuer:    leaf.Issuer.String(),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
	}, nil
}
