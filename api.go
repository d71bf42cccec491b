package acme

import (
	"encoding/json"
	"fmt"
)

// Resource paths of the pre-RFC-8555 protocol, relative to the server URI.
// Resources created at runtime (accounts, authorizations, certificates) are
// addressed by the Location header field of the response which created them.
const (
	directoryPath        = "/directory"
	newRegistrationPath  = "/acme/new-reg"
	newAuthorizationPath = "/acme/new-authz"
	newCertificatePath   = "/acme/new-cert"
)

const replayNonceHeader = "Replay-Nonce"

// AcmeError is returned for any response with an unexpected status code and
// for any body which cannot be decoded when decoding is required. It carries
// the raw response so that callers can decide whether to retry, alert or
// abort.
type AcmeError struct {
	Response *Response
	Err      error
}

func newAcmeError(res *Response) *AcmeError {
	return &AcmeError{Response: res}
}

func newAcmeDecodingError(res *Response, err error) *AcmeError {
	return &AcmeError{Response: res, Err: err}
}

func (err *AcmeError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("invalid response: %v", err.Err)
	}

	return fmt.Sprintf("request failed with status %d: %s",
		err.Response.StatusCode, err.Response.Body)
}

func (err *AcmeError) Unwrap() error {
	return err.Err
}

// AccountAlreadyExistsError is returned when registering a key the server
// already knows. URI is the location of the conflicting account.
type AccountAlreadyExistsError struct {
	Response *Response
	URI      string
}

func (err *AccountAlreadyExistsError) Error() string {
	return fmt.Sprintf("account already exists at %q", err.URI)
}

// Request payloads form a closed set of types, one per operation, each
// serializing to the wire shape {"resource": ..., ...} expected by the
// server.

type registrationPayload struct {
	Resource string   `json:"resource"`
	Contact  []string `json:"contact,omitempty"`
}

// RegistrationUpdate contains the account fields a caller can modify with
// UpdateRegistration.
type RegistrationUpdate struct {
	Contact   []string `json:"contact,omitempty"`
	Agreement string   `json:"agreement,omitempty"`
}

type registrationUpdatePayload struct {
	Resource string `json:"resource"`
	RegistrationUpdate
}

type identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type authorizationPayload struct {
	Resource   string     `json:"resource"`
	Identifier identifier `json:"identifier"`
}

type challengePayload struct {
	Resource         string `json:"resource"`
	Type             string `json:"type"`
	KeyAuthorization string `json:"keyAuthorization"`
}

type certificatePayload struct {
	Resource string `json:"resource"`
	CSR      string `json:"csr"`
}

// decodeJSONBody decodes a response body expected to contain a JSON object.
// Decoding failures are normalized into an AcmeError wrapping the cause; a
// raw decoding error never reaches the caller.
func decodeJSONBody(res *Response) (map[string]any, error) {
	var contents map[string]any

	if err := json.Unmarshal(res.Body, &contents); err != nil {
		return nil, newAcmeDecodingError(res,
			fmt.Errorf("cannot decode response body: %w", err))
	}

	return contents, nil
}
