package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eroen/manuale"
	"go.n16f.net/program"
)

func addAccountCommands() {
	var c *program.Command

	c = p.AddCommand("register", "register the account key on the server",
		cmdRegister)
	c.AddArgument("email", "the contact email address")

	p.AddCommand("info", "print the account information stored on the server",
		cmdInfo)

	c = p.AddCommand("agree", "agree to the terms of service", cmdAgree)
	c.AddArgument("uri", "the URI of the terms of service document")
}

func cmdRegister(p *program.Program) {
	email := p.ArgumentValue("email")

	result, err := client.Register(email)
	if err != nil {
		var existsErr *acme.AccountAlreadyExistsError
		if errors.As(err, &existsErr) {
			p.Fatal("account already registered at %q", existsErr.URI)
		}

		p.Fatal("cannot register account: %v", err)
	}

	p.Info("account registered at %q", result.URI)

	if result.Terms != "" {
		p.Info("terms of service: %s", result.Terms)
	}
}

func cmdInfo(p *program.Program) {
	contents, err := client.GetRegistration()
	if err != nil {
		p.Fatal("cannot fetch registration: %v", err)
	}

	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		p.Fatal("cannot encode registration: %v", err)
	}

	fmt.Println(string(data))
}

func cmdAgree(p *program.Program) {
	uri := p.ArgumentValue("uri")

	update := acme.RegistrationUpdate{
		Agreement: uri,
	}

	if err := client.UpdateRegistration(update); err != nil {
		p.Fatal("cannot update registration: %v", err)
	}

	p.Info("agreement recorded")
}
