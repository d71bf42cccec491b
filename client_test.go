package acme

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

// testServer is a stub ACME server. The directory endpoint hands out a
// distinct nonce per request; tests register the resource handlers they need
// on Mux.
type testServer struct {
	*httptest.Server

	Mux        *http.ServeMux
	NonceCount atomic.Int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mux := http.NewServeMux()

	s := testServer{Mux: mux}

	mux.HandleFunc("GET /directory", func(w http.ResponseWriter, req *http.Request) {
		n := s.NonceCount.Add(1)
		w.Header().Set("Replay-Nonce", fmt.Sprintf("test-nonce-%d", n))
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return &s
}

func newTestClient(t *testing.T, s *testServer) *Client {
	t.Helper()

	key, err := GenerateECDSAP256PrivateKey()
	require.NoError(t, err)

	clientCfg := ClientCfg{
		Account:   &Account{Key: key},
		ServerURI: s.URL,
	}

	client, err := NewClient(clientCfg)
	require.NoError(t, err)
	t.Cleanup(client.Stop)

	return client
}

// parseSignedRequest unwraps the JWS envelope of a request body and returns
// the nonce of the protected header along with the decoded payload.
func parseSignedRequest(t *testing.T, body []byte) (string, map[string]any) {
	t.Helper()

	algorithms := []jose.SignatureAlgorithm{jose.ES256, jose.RS256}

	jws, err := jose.ParseSigned(string(body), algorithms)
	require.NoError(t, err)
	require.Len(t, jws.Signatures, 1)

	var payload map[string]any
	err = json.Unmarshal(jws.UnsafePayloadWithoutVerification(), &payload)
	require.NoError(t, err)

	return jws.Signatures[0].Header.Nonce, payload
}

func TestNewClientMissingServerURI(t *testing.T) {
	key, err := GenerateECDSAP256PrivateKey()
	require.NoError(t, err)

	_, err = NewClient(ClientCfg{Account: &Account{Key: key}})
	require.Error(t, err)
}

func TestNewClientAccountFromDataStore(t *testing.T) {
	require := require.New(t)

	s := newTestServer(t)

	dataStore, err := NewFileSystemDataStore(t.TempDir())
	require.NoError(err)

	clientCfg := ClientCfg{
		DataStore: dataStore,
		ServerURI: s.URL,
	}

	// The first client creates an account with a fresh key.
	client, err := NewClient(clientCfg)
	require.NoError(err)
	key := client.Account().Key

	// A second client on the same data store loads the same account.
	client, err = NewClient(clientCfg)
	require.NoError(err)
	require.Equal(key, client.Account().Key)
}
