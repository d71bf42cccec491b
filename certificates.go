package acme

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// IssuanceResult is produced once per successful issuance. Certificate and
// Intermediate are raw DER bytes; Intermediate is nil when the server did not
// advertise an issuer certificate.
type IssuanceResult struct {
	Certificate  []byte
	Location     string
	Intermediate []byte
}

// IssueCertificate submits a DER-encoded CSR and returns the issued
// certificate. If the response advertises an issuer certificate through a
// Link header field with the "up" relation, it is fetched with a single
// unauthenticated GET request.
func (c *Client) IssueCertificate(csr []byte) (*IssuanceResult, error) {
	payload := certificatePayload{
		Resource: "new-cert",
		CSR:      base64.RawURLEncoding.EncodeToString(csr),
	}

	signedData, err := c.signRequest(&payload)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Accept": "application/pkix-cert"}

	res, err := c.post(newCertificatePath, signedData, headers)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != 201 {
		return nil, newAcmeError(res)
	}

	result := IssuanceResult{
		Certificate: res.Body,
		Location:    res.Header.Get("Location"),
	}

	if uri := getLinkHeader(res.Header.Get("Link"), "up"); uri != "" {
		chainRes, err := c.getURI(uri, nil)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch issuer certificate: %w", err)
		}

		result.Intermediate = chainRes.Body
	}

	return &result, nil
}

// CertificateChainPEM encodes the issued certificate, followed by the
// intermediate if there is one, as a PEM chain.
func (r *IssuanceResult) CertificateChainPEM() ([]byte, error) {
	ders := [][]byte{r.Certificate}
	if r.Intermediate != nil {
		ders = append(ders, r.Intermediate)
	}

	return encodePEMCertificateChain(ders)
}

func encodePEMCertificateChain(ders [][]byte) ([]byte, error) {
	var data []byte

	for _, der := range ders {
		if _, err := x509.ParseCertificate(der); err != nil {
			return nil, fmt.Errorf("cannot parse certificate: %w", err)
		}

		block := pem.Block{
			Type:  "CERTIFICATE",
			Bytes: der,
		}

		data = append(data, pem.EncodeToMemory(&block)...)
	}

	return data, nil
}

// DecodePEMCertificateRequest extracts the DER bytes of a PEM-encoded CSR.
func DecodePEMCertificateRequest(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if block.Type != "CERTIFICATE REQUEST" &&
		block.Type != "NEW CERTIFICATE REQUEST" {
		return nil, fmt.Errorf("unknown PEM block %q", block.Type)
	}

	if _, err := x509.ParseCertificateRequest(block.Bytes); err != nil {
		return nil, fmt.Errorf("cannot parse certificate request: %w", err)
	}

	return block.Bytes, nil
}
