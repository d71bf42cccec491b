package acme

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"fmt"
)

// Account identifies a subject by its private key. URI is assigned by the
// server and stays empty until registration succeeds; it is mutated exactly
// once, by Register.
type Account struct {
	URI     string        `json:"uri"`
	Key     crypto.Signer `json:"-"`
	KeyData []byte        `json:"key_data"`
}

func (a *Account) MarshalJSON() ([]byte, error) {
	type Account2 Account
	a2 := Account2(*a)

	keyData, err := x509.MarshalPKCS8PrivateKey(a2.Key)
	if err != nil {
		return nil, fmt.Errorf("cannot encode private key: %w", err)
	}
	a2.KeyData = keyData

	return json.Marshal(a2)
}

func (a *Account) UnmarshalJSON(data []byte) error {
	type Account2 Account
	var a2 Account2

	if err := json.Unmarshal(data, &a2); err != nil {
		return err
	}

	key, err := x509.ParsePKCS8PrivateKey(a2.KeyData)
	if err != nil {
		return fmt.Errorf("cannot parse PKCS #8 data: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return fmt.Errorf("private key of type %T cannot be used to sign data",
			key)
	}

	a2.Key = signer

	*a = Account(a2)
	return nil
}

func GenerateECDSAP256PrivateKey() (crypto.Signer, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}
