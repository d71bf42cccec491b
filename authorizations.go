package acme

import (
	"encoding/json"
	"fmt"

	"golang.org/x/net/idna"
)

// NewAuthorizationResult is produced once per domain authorization request.
// Contents is the authorization object returned by the server; it contains
// the challenge descriptors the caller picks from.
type NewAuthorizationResult struct {
	Contents map[string]any
	URI      string
}

// Challenge is the typed view of a challenge descriptor embedded in an
// authorization object.
type Challenge struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	URI    string `json:"uri"`
	Token  string `json:"token"`
}

// Challenges decodes the challenge descriptors out of the authorization
// contents.
func (r *NewAuthorizationResult) Challenges() ([]Challenge, error) {
	data, err := json.Marshal(r.Contents["challenges"])
	if err != nil {
		return nil, fmt.Errorf("cannot encode challenges: %w", err)
	}

	var challenges []Challenge
	if err := json.Unmarshal(data, &challenges); err != nil {
		return nil, fmt.Errorf("cannot decode challenges: %w", err)
	}

	return challenges, nil
}

func (r *NewAuthorizationResult) FindChallenge(challengeType string) *Challenge {
	challenges, err := r.Challenges()
	if err != nil {
		return nil
	}

	for _, challenge := range challenges {
		if challenge.Type == challengeType {
			return &challenge
		}
	}

	return nil
}

// NewAuthorization requests an authorization for a domain. The domain is
// IDNA-encoded before being sent as a DNS identifier.
func (c *Client) NewAuthorization(domain string) (*NewAuthorizationResult, error) {
	encodedDomain, err := idna.ToASCII(domain)
	if err != nil {
		return nil, fmt.Errorf("cannot encode dns name %q: %w", domain, err)
	}

	payload := authorizationPayload{
		Resource:   "new-authz",
		Identifier: identifier{Type: "dns", Value: encodedDomain},
	}

	signedData, err := c.signRequest(&payload)
	if err != nil {
		return nil, err
	}

	res, err := c.post(newAuthorizationPath, signedData, nil)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != 201 {
		return nil, newAcmeError(res)
	}

	contents, err := decodeJSONBody(res)
	if err != nil {
		return nil, err
	}

	return &NewAuthorizationResult{
		Contents: contents,
		URI:      res.Header.Get("Location"),
	}, nil
}

// ValidateAuthorization asks the server to verify a challenge. The key
// authorization must have been provisioned where the challenge type expects
// it before calling it.
func (c *Client) ValidateAuthorization(uri, challengeType, keyAuthorization string) error {
	payload := challengePayload{
		Resource:         "challenge",
		Type:             challengeType,
		KeyAuthorization: keyAuthorization,
	}

	signedData, err := c.signRequest(&payload)
	if err != nil {
		return err
	}

	res, err := c.post(uri, signedData, nil)
	if err != nil {
		return err
	}

	if !res.success() {
		return newAcmeError(res)
	}

	return nil
}

// GetAuthorization polls the state of an authorization. The status code is
// not interpreted; the body must be a JSON object.
func (c *Client) GetAuthorization(uri string) (map[string]any, error) {
	res, err := c.get(uri, nil)
	if err != nil {
		return nil, err
	}

	return decodeJSONBody(res)
}
