package acme

import (
	"fmt"
)

// RegistrationResult is produced once per successful registration. Terms is
// the terms-of-service URI advertised by the server, or empty if there is
// none.
type RegistrationResult struct {
	Contents map[string]any
	URI      string
	Terms    string
}

// Register creates an account for the client key on the server. On success
// the account URI is set to the location assigned by the server and the
// account is persisted if the client has a data store. Registering a key the
// server already knows yields an AccountAlreadyExistsError; the account is
// left untouched.
func (c *Client) Register(email string) (*RegistrationResult, error) {
	payload := registrationPayload{
		Resource: "new-reg",
		Contact:  []string{"mailto:" + email},
	}

	signedData, err := c.signRequest(&payload)
	if err != nil {
		return nil, err
	}

	res, err := c.post(newRegistrationPath, signedData, nil)
	if err != nil {
		return nil, err
	}

	uri := res.Header.Get("Location")

	switch res.StatusCode {
	case 201:
		c.account.URI = uri

		contents, err := decodeJSONBody(res)
		if err != nil {
			return nil, err
		}

		if c.dataStore != nil {
			if err := c.dataStore.StoreAccount(c.account); err != nil {
				return nil, fmt.Errorf("cannot store account: %w", err)
			}
		}

		terms := getLinkHeader(res.Header.Get("Link"), "terms-of-service")

		return &RegistrationResult{
			Contents: contents,
			URI:      uri,
			Terms:    terms,
		}, nil

	case 409:
		return nil, &AccountAlreadyExistsError{Response: res, URI: uri}
	}

	return nil, newAcmeError(res)
}

// GetRegistration fetches the account information stored on the server.
func (c *Client) GetRegistration() (map[string]any, error) {
	payload := registrationPayload{
		Resource: "reg",
	}

	signedData, err := c.signRequest(&payload)
	if err != nil {
		return nil, err
	}

	res, err := c.post(c.account.URI, signedData, nil)
	if err != nil {
		return nil, err
	}

	if !res.success() {
		return nil, newAcmeError(res)
	}

	return decodeJSONBody(res)
}

// UpdateRegistration modifies the account on the server, e.g. to agree to the
// terms of service or to change contact addresses.
func (c *Client) UpdateRegistration(update RegistrationUpdate) error {
	payload := registrationUpdatePayload{
		Resource:           "reg",
		RegistrationUpdate: update,
	}

	signedData, err := c.signRequest(&payload)
	if err != nil {
		return err
	}

	res, err := c.post(c.account.URI, signedData, nil)
	if err != nil {
		return err
	}

	if !res.success() {
		return newAcmeError(res)
	}

	return nil
}
