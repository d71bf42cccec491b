package acme

import (
	"fmt"
)

// fetchNonce obtains a fresh anti-replay nonce from the Replay-Nonce header
// field of the directory endpoint. Every signed request consumes exactly one
// nonce, fetched immediately before the request; nonces are never pooled or
// reused.
//
// A response without a Replay-Nonce header field yields an empty nonce, not
// an error: signing proceeds and the server rejects the request.
func (c *Client) fetchNonce() (string, error) {
	res, err := c.get(directoryPath, nil)
	if err != nil {
		return "", fmt.Errorf("cannot fetch %q: %w", directoryPath, err)
	}

	return res.Header.Get(replayNonceHeader), nil
}
