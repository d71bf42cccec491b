package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/eroen/manuale"
	"go.n16f.net/program"
)

func addAuthorizationCommands() {
	var c *program.Command

	c = p.AddCommand("authorize", "request an authorization for a domain",
		cmdAuthorize)
	c.AddArgument("domain", "the domain to authorize")

	c = p.AddCommand("validate", "ask the server to validate a challenge",
		cmdValidate)
	c.AddArgument("uri", "the URI of the challenge")
	c.AddArgument("type", "the challenge type")
	c.AddArgument("key-authorization", "the key authorization")

	c = p.AddCommand("poll", "print the status of an authorization", cmdPoll)
	c.AddArgument("uri", "the URI of the authorization")

	c = p.AddCommand("respond-http",
		"serve a key authorization for an http-01 challenge", cmdRespondHTTP)
	c.AddOption("a", "address", "address", ":80", "the address to listen on")
	c.AddArgument("token", "the challenge token")
	c.AddArgument("key-authorization", "the key authorization")
}

func cmdAuthorize(p *program.Program) {
	domain := p.ArgumentValue("domain")

	result, err := client.NewAuthorization(domain)
	if err != nil {
		p.Fatal("cannot request authorization: %v", err)
	}

	p.Info("authorization created at %q", result.URI)

	challenges, err := result.Challenges()
	if err != nil {
		p.Fatal("cannot decode challenges: %v", err)
	}

	for _, challenge := range challenges {
		t := program.NewKeyValueTable()

		t.AddRow("type", challenge.Type)
		t.AddRow("uri", challenge.URI)
		t.AddRow("token", challenge.Token)

		t.Print()
	}
}

func cmdValidate(p *program.Program) {
	uri := p.ArgumentValue("uri")
	challengeType := p.ArgumentValue("type")
	keyAuthorization := p.ArgumentValue("key-authorization")

	err := client.ValidateAuthorization(uri, challengeType, keyAuthorization)
	if err != nil {
		p.Fatal("cannot validate challenge: %v", err)
	}

	p.Info("validation requested")
}

func cmdPoll(p *program.Program) {
	uri := p.ArgumentValue("uri")

	contents, err := client.GetAuthorization(uri)
	if err != nil {
		p.Fatal("cannot fetch authorization: %v", err)
	}

	status, _ := contents["status"].(string)
	if status == "" {
		status = "unknown"
	}

	p.Info("authorization status: %s", status)
}

func cmdRespondHTTP(p *program.Program) {
	token := p.ArgumentValue("token")
	keyAuthorization := p.ArgumentValue("key-authorization")

	responderCfg := acme.HTTPChallengeResponderCfg{
		Address: p.OptionValue("address"),
	}

	responder := acme.NewHTTPChallengeResponder(responderCfg)
	responder.AddKeyAuthorization(token, keyAuthorization)

	if err := responder.Start(); err != nil {
		p.Fatal("cannot start responder: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	signo := <-sigChan
	p.Info("\nreceived signal %d (%v)", signo, signo)

	responder.Stop()
}
