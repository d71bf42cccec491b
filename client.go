package acme

import (
	"crypto"
	"errors"
	"fmt"
	"net/http"
)

const (
	LetsEncryptDirectoryURI        = "https://acme-v01.api.letsencrypt.org"
	LetsEncryptStagingDirectoryURI = "https://acme-staging.api.letsencrypt.org"
)

type PrivateKeyGenerationFunc func() (crypto.Signer, error)

type ClientCfg struct {
	Log                Logger                   `json:"-"`
	HTTPClient         *http.Client             `json:"-"`
	DataStore          DataStore                `json:"-"`
	Account            *Account                 `json:"-"`
	GenerateAccountKey PrivateKeyGenerationFunc `json:"-"`

	UserAgent string `json:"user_agent"`
	ServerURI string `json:"server_uri"`
}

// Client drives the ACME protocol against a single server. Operations are
// synchronous: each one fetches a fresh nonce then sends the signed request.
// A client must not be used concurrently without external synchronization,
// since a second caller could consume the nonce fetched for the first.
type Client struct {
	Log Logger
	Cfg ClientCfg

	httpClient *http.Client
	dataStore  DataStore
	account    *Account
}

func NewClient(cfg ClientCfg) (*Client, error) {
	if cfg.Log == nil {
		cfg.Log = NewDefaultLogger()
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = NewHTTPClient(nil)
	}

	if cfg.GenerateAccountKey == nil {
		cfg.GenerateAccountKey = GenerateECDSAP256PrivateKey
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = "manuale (https://github.com/eroen/manuale)"
	}

	if cfg.ServerURI == "" {
		return nil, fmt.Errorf("missing server URI")
	}

	c := Client{
		Log: cfg.Log,
		Cfg: cfg,

		httpClient: cfg.HTTPClient,
		dataStore:  cfg.DataStore,
	}

	account, err := c.loadAccount()
	if err != nil {
		return nil, err
	}
	c.account = account

	if account.URI != "" {
		c.Log.Info("using account %q", account.URI)
	}

	return &c, nil
}

// loadAccount returns the account the client will sign requests with. An
// account supplied in the configuration takes precedence; it stays owned by
// the caller. Without one, the account comes from the data store, creating it
// on first use.
func (c *Client) loadAccount() (*Account, error) {
	if c.Cfg.Account != nil {
		return c.Cfg.Account, nil
	}

	if c.dataStore == nil {
		return nil, fmt.Errorf("missing account and data store")
	}

	account, err := c.dataStore.LoadAccount()
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, ErrNoAccount) {
		return nil, fmt.Errorf("cannot load account: %w", err)
	}

	key, err := c.Cfg.GenerateAccountKey()
	if err != nil {
		return nil, fmt.Errorf("cannot generate account key: %w", err)
	}

	account = &Account{Key: key}

	if err := c.dataStore.StoreAccount(account); err != nil {
		return nil, fmt.Errorf("cannot store account: %w", err)
	}

	return account, nil
}

func (c *Client) Account() *Account {
	return c.account
}

func (c *Client) Stop() {
	c.httpClient.CloseIdleConnections()
}
