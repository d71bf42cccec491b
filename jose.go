package acme

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// signRequest encodes an operation payload, fetches a fresh nonce and wraps
// the payload into a signed JWS envelope ready to be posted.
func (c *Client) signRequest(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cannot encode payload: %w", err)
	}

	nonce, err := c.fetchNonce()
	if err != nil {
		return nil, fmt.Errorf("cannot fetch nonce: %w", err)
	}

	signedData, err := c.signPayload(data, nonce)
	if err != nil {
		return nil, fmt.Errorf("cannot sign payload: %w", err)
	}

	return signedData, nil
}

// signPayload produces the full JSON serialization of a JWS over the payload.
// The account JWK is embedded in the header and the nonce is bound into the
// protected header through a single-use nonce source.
func (c *Client) signPayload(data []byte, nonce string) ([]byte, error) {
	algorithm, err := signatureAlgorithm(c.account.Key)
	if err != nil {
		return nil, fmt.Errorf("cannot identify signature algorithm: %w", err)
	}

	jwk := jose.JSONWebKey{
		Key: c.account.Key,
	}

	signingKey := jose.SigningKey{
		Algorithm: algorithm,
		Key:       &jwk,
	}

	options := jose.SignerOptions{
		NonceSource: &staticNonceSource{nonce: nonce},
		EmbedJWK:    true,
	}

	signer, err := jose.NewSigner(signingKey, &options)
	if err != nil {
		return nil, fmt.Errorf("cannot create signer: %w", err)
	}

	signedData, err := signer.Sign(data)
	if err != nil {
		return nil, err
	}

	return []byte(signedData.FullSerialize()), nil
}

func signatureAlgorithm(key any) (jose.SignatureAlgorithm, error) {
	var algorithm jose.SignatureAlgorithm

	switch key := key.(type) {
	case *rsa.PrivateKey:
		algorithm = jose.RS256

	case *ecdsa.PrivateKey:
		switch key.Curve {
		case elliptic.P256():
			algorithm = jose.ES256
		case elliptic.P384():
			algorithm = jose.ES384
		case elliptic.P521():
			algorithm = jose.ES512
		default:
			return "", fmt.Errorf("unknown elliptic curve %#v (%T)", key, key)
		}

	default:
		return "", fmt.Errorf("unknown private key type %T", key)
	}

	return algorithm, nil
}

// staticNonceSource yields a nonce exactly once. An empty nonce is yielded
// as-is: the client does not pre-validate nonce presence, the server does.
type staticNonceSource struct {
	nonce string
	used  bool
}

func (s *staticNonceSource) Nonce() (string, error) {
	if s.used {
		return "", fmt.Errorf("nonce already used")
	}

	s.used = true

	return s.nonce, nil
}
