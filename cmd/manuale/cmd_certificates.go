package main

import (
	"bytes"
	"os"

	"github.com/eroen/manuale"
	"go.n16f.net/program"
)

func addCertificateCommands() {
	var c *program.Command

	c = p.AddCommand("issue", "submit a certificate signing request", cmdIssue)

	c.AddOption("o", "output", "path", "",
		"the path of the output PEM file (default: standard output)")

	c.AddArgument("csr", "the path of the PEM or DER encoded CSR")
}

func cmdIssue(p *program.Program) {
	csrPath := p.ArgumentValue("csr")

	csr, err := os.ReadFile(csrPath)
	if err != nil {
		p.Fatal("cannot read %q: %v", csrPath, err)
	}

	if bytes.Contains(csr, []byte("-----BEGIN")) {
		csr, err = acme.DecodePEMCertificateRequest(csr)
		if err != nil {
			p.Fatal("cannot decode %q: %v", csrPath, err)
		}
	}

	result, err := client.IssueCertificate(csr)
	if err != nil {
		p.Fatal("cannot issue certificate: %v", err)
	}

	p.Info("certificate issued at %q", result.Location)

	chain, err := result.CertificateChainPEM()
	if err != nil {
		p.Fatal("cannot encode certificate chain: %v", err)
	}

	outputPath := p.OptionValue("output")
	if outputPath == "" {
		os.Stdout.Write(chain)
		return
	}

	if err := os.WriteFile(outputPath, chain, 0644); err != nil {
		p.Fatal("cannot write %q: %v", outputPath, err)
	}

	p.Info("certificate chain written to %q", outputPath)
}
