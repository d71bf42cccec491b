package acme

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestCertificate(t *testing.T, commonName string) []byte {
	t.Helper()

	key, err := GenerateECDSAP256PrivateKey()
	require.NoError(t, err)

	tpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl,
		key.Public(), key)
	require.NoError(t, err)

	return der
}

func generateTestCSR(t *testing.T) []byte {
	t.Helper()

	key, err := GenerateECDSAP256PrivateKey()
	require.NoError(t, err)

	tpl := x509.CertificateRequest{
		DNSNames: []string{"example.com"},
	}

	csr, err := x509.CreateCertificateRequest(rand.Reader, &tpl, key)
	require.NoError(t, err)

	return csr
}

func TestIssueCertificate(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := newTestServer(t)
	client := newTestClient(t, s)

	certDER := generateTestCertificate(t, "example.com")
	issuerDER := generateTestCertificate(t, "test ca")
	csr := generateTestCSR(t)

	var accept string
	var payload map[string]any

	s.Mux.HandleFunc("POST /acme/new-cert", func(w http.ResponseWriter, req *http.Request) {
		accept = req.Header.Get("Accept")

		body, err := io.ReadAll(req.Body)
		require.NoError(err)
		_, payload = parseSignedRequest(t, body)

		w.Header().Set("Location", s.URL+"/acme/cert/1")
		w.Header().Set("Link", `<`+s.URL+`/acme/issuer>;rel="up"`)
		w.Header().Set("Content-Type", "application/pkix-cert")
		w.WriteHeader(201)
		w.Write(certDER)
	})

	s.Mux.HandleFunc("GET /acme/issuer", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/pkix-cert")
		w.Write(issuerDER)
	})

	result, err := client.IssueCertificate(csr)
	require.NoError(err)

	assert.Equal("application/pkix-cert", accept)
	assert.Equal("new-cert", payload["resource"])
	assert.Equal(base64.RawURLEncoding.EncodeToString(csr), payload["csr"])

	assert.Equal(certDER, result.Certificate)
	assert.Equal(s.URL+"/acme/cert/1", result.Location)
	assert.Equal(issuerDER, result.Intermediate)
}

func TestIssueCertificateNoIntermediate(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := newTestServer(t)
	client := newTestClient(t, s)

	certDER := generateTestCertificate(t, "example.com")

	var issuerFetched bool

	s.Mux.HandleFunc("POST /acme/new-cert", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Location", s.URL+"/acme/cert/1")
		w.WriteHeader(201)
		w.Write(certDER)
	})

	s.Mux.HandleFunc("GET /acme/issuer", func(w http.ResponseWriter, req *http.Request) {
		issuerFetched = true
	})

	result, err := client.IssueCertificate(generateTestCSR(t))
	require.NoError(err)

	assert.Equal(certDER, result.Certificate)
	assert.Nil(result.Intermediate)
	assert.False(issuerFetched)
}

func TestIssueCertificateFailure(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := newTestServer(t)
	client := newTestClient(t, s)

	s.Mux.HandleFunc("POST /acme/new-cert", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(429)
		io.WriteString(w, `{"type": "urn:acme:error:rateLimited"}`)
	})

	_, err := client.IssueCertificate(generateTestCSR(t))
	require.Error(err)

	var acmeErr *AcmeError
	require.ErrorAs(err, &acmeErr)
	assert.Equal(429, acmeErr.Response.StatusCode)
}

func TestCertificateChainPEM(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	certDER := generateTestCertificate(t, "example.com")
	issuerDER := generateTestCertificate(t, "test ca")

	result := IssuanceResult{
		Certificate:  certDER,
		Intermediate: issuerDER,
	}

	data, err := result.CertificateChainPEM()
	require.NoError(err)

	var ders [][]byte
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}

		require.Equal("CERTIFICATE", block.Type)
		ders = append(ders, block.Bytes)
	}

	require.Len(ders, 2)
	assert.Equal(certDER, ders[0])
	assert.Equal(issuerDER, ders[1])
}

func TestDecodePEMCertificateRequest(t *testing.T) {
	require := require.New(t)

	csr := generateTestCSR(t)

	data := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE REQUEST",
		Bytes: csr,
	})

	decoded, err := DecodePEMCertificateRequest(data)
	require.NoError(err)
	require.Equal(csr, decoded)

	_, err = DecodePEMCertificateRequest([]byte("not pem"))
	require.Error(err)
}
