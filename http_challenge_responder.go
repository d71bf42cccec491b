package acme

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.n16f.net/log"
)

type HTTPChallengeResponderCfg struct {
	Log *log.Logger `json:"-"`

	Address string `json:"address"`
}

// HTTPChallengeResponder serves key authorizations at the well-known
// http-01 challenge path. The caller provisions one entry per challenge
// before asking the server to validate it and discards it afterwards.
type HTTPChallengeResponder struct {
	Cfg HTTPChallengeResponderCfg
	Log *log.Logger

	httpServer        *http.Server
	keyAuthorizations map[string]string
	mutex             sync.Mutex

	wg sync.WaitGroup
}

func NewHTTPChallengeResponder(cfg HTTPChallengeResponderCfg) *HTTPChallengeResponder {
	if cfg.Address == "" {
		// Usually we default to localhost for default server addresses, but
		// the very point of the challenge responder is to be reachable from
		// an external ACME server.
		cfg.Address = "0.0.0.0:80"
	}

	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger("http_responder")
	}

	httpMux := http.NewServeMux()

	logger := cfg.Log

	httpServer := http.Server{
		Addr:     cfg.Address,
		Handler:  httpMux,
		ErrorLog: logger.StdLogger(log.LevelError),

		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       10 * time.Second,
	}

	r := HTTPChallengeResponder{
		Cfg: cfg,
		Log: logger,

		keyAuthorizations: make(map[string]string),

		httpServer: &httpServer,
	}

	httpMux.HandleFunc("/", r.hNotFound)
	httpMux.HandleFunc("/.well-known/acme-challenge/{token}", r.hChallenge)

	return &r
}

func (r *HTTPChallengeResponder) Start() error {
	listener, err := net.Listen("tcp", r.Cfg.Address)
	if err != nil {
		return fmt.Errorf("cannot listen on %q: %w", r.Cfg.Address, err)
	}

	r.Log.Info("HTTP challenge responder listening on %q", r.Cfg.Address)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.httpServer.Serve(listener); err != nil {
			if err != http.ErrServerClosed {
				r.Log.Error("HTTP server error: %v", err)
			}
		}
	}()

	return nil
}

func (r *HTTPChallengeResponder) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := r.httpServer.Shutdown(ctx); err != nil {
		r.Log.Error("cannot shutdown server: %v", err)
	}

	r.wg.Wait()
}

func (r *HTTPChallengeResponder) AddKeyAuthorization(token, keyAuthorization string) {
	r.mutex.Lock()
	r.keyAuthorizations[token] = keyAuthorization
	r.mutex.Unlock()
}

func (r *HTTPChallengeResponder) DiscardToken(token string) {
	r.mutex.Lock()
	delete(r.keyAuthorizations, token)
	r.mutex.Unlock()
}

func (r *HTTPChallengeResponder) hNotFound(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(404)
}

func (r *HTTPChallengeResponder) hChallenge(w http.ResponseWriter, req *http.Request) {
	token := req.PathValue("token")

	var statusCode int
	reply := func(status int, body string) {
		statusCode = status
		w.WriteHeader(status)
		fmt.Fprintln(w, body)
	}

	defer func() {
		statusString := "-"
		if statusCode > 0 {
			statusString = strconv.Itoa(statusCode)
		}

		r.Log.Debug(2, "%s %s %s", req.Method, req.URL.String(), statusString)
	}()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	keyAuthorization, found := r.keyAuthorizations[token]
	if !found {
		reply(400, "unknown token")
		return
	}

	reply(200, keyAuthorization)
}
