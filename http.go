package acme

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func NewHTTPClient(caCertPool *x509.CertPool) *http.Client {
	dialer := net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	tlsCfg := tls.Config{
		RootCAs: caCertPool,
	}

	tlsDialer := tls.Dialer{
		NetDialer: &dialer,
		Config:    &tlsCfg,
	}

	transport := http.Transport{
		Proxy: http.ProxyFromEnvironment,

		DialContext:    dialer.DialContext,
		DialTLSContext: tlsDialer.DialContext,

		MaxIdleConns: 10,

		IdleConnTimeout: 60 * time.Second,
	}

	client := http.Client{
		Timeout:   30 * time.Second,
		Transport: &transport,
	}

	return &client
}

// Response captures everything an operation needs to classify a server
// answer: the status code, the header fields and the fully read body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (res *Response) success() bool {
	return res.StatusCode >= 200 && res.StatusCode <= 299
}

func (c *Client) get(path string, headers map[string]string) (*Response, error) {
	uri, err := c.resolvePath(path)
	if err != nil {
		return nil, err
	}

	return c.getURI(uri, headers)
}

// getURI sends a GET request to an already absolute URI, without rebasing it
// on the server URI. Used for resources which live outside of the ACME
// server, e.g. the issuer certificate advertised during issuance.
func (c *Client) getURI(uri string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequest("GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	return c.do(req, headers)
}

func (c *Client) post(path string, body []byte, headers map[string]string) (*Response, error) {
	uri, err := c.resolvePath(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", uri, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req, headers)
}

func (c *Client) do(req *http.Request, headers map[string]string) (*Response, error) {
	req.Header.Set("User-Agent", c.Cfg.UserAgent)

	for name, value := range headers {
		req.Header.Set(name, value)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot send request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read response body: %w", err)
	}

	c.Log.Debug(2, "%s %s %d", req.Method, req.URL.String(), res.StatusCode)

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       data,
	}, nil
}

// resolvePath rebases a resource path on the configured server URI. Absolute
// URIs, e.g. from a Location header field of a previous response, are reduced
// to their path component first: the scheme and host of a server-supplied URI
// are never trusted, so that a response cannot redirect the client off the
// configured server.
func (c *Client) resolvePath(path string) (string, error) {
	base, err := url.Parse(c.Cfg.ServerURI)
	if err != nil {
		return "", fmt.Errorf("cannot parse server URI %q: %w",
			c.Cfg.ServerURI, err)
	}

	if strings.HasPrefix(path, "http") {
		uri, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("cannot parse URI %q: %w", path, err)
		}

		path = uri.Path
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("cannot parse path %q: %w", path, err)
	}

	return base.ResolveReference(ref).String(), nil
}

// getLinkHeader extracts the URI of the first entry matching a relation type
// in a RFC 5988 Link header field, e.g.
//
//	<https://example.com/acme/terms>;rel="terms-of-service"
//
// It returns an empty string if no entry matches.
func getLinkHeader(header, relationType string) string {
	for _, link := range strings.Split(header, ",") {
		link = strings.TrimSpace(link)

		if !strings.Contains(link, relationType) {
			continue
		}

		start := strings.IndexByte(link, '<')
		end := strings.IndexByte(link, '>')
		if start == -1 || end == -1 || end < start {
			continue
		}

		return link[start+1 : end]
	}

	return ""
}
