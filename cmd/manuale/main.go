package main

import (
	"github.com/eroen/manuale"
	"go.n16f.net/program"
)

var (
	p      *program.Program
	client *acme.Client
)

func main() {
	// Program
	p = program.NewProgram("manuale", "ACME certificate client")

	p.AddOption("s", "server", "uri", acme.LetsEncryptDirectoryURI,
		"the base URI of the ACME server")
	p.AddOption("d", "data-store", "path", "manuale",
		"the path of the data store directory")

	addAccountCommands()
	addAuthorizationCommands()
	addCertificateCommands()

	p.ParseCommandLine()

	// Data store
	dataStorePath := p.OptionValue("data-store")

	dataStore, err := acme.NewFileSystemDataStore(dataStorePath)
	if err != nil {
		p.Fatal("cannot create data store: %v", err)
	}

	// ACME client
	serverURI := p.OptionValue("server")

	p.Info("using ACME server %q", serverURI)

	clientCfg := acme.ClientCfg{
		Log:       p,
		DataStore: dataStore,
		ServerURI: serverURI,
	}

	client, err = acme.NewClient(clientCfg)
	if err != nil {
		p.Fatal("cannot create client: %v", err)
	}

	// Main
	p.Run()
}
