package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

type policyCmd struct {
	Path  string `arg:"" optional:"" type:"existingfile" help:"Policy YAML to validate. Without it the defaults are printed."`
	Quiet bool   `short:"q" help:"Only validate; print nothing on success."`
}

func (cmd *policyCmd) Run(_ context.Context) error {
	doc, err := resolvePolicy(cmd.Path)
	if err != nil {
		return err
	}
	if cmd.Quiet {
		return nil
	}
	return writePolicy(os.Stdout, doc)
}

// resolvePolicy loads path, or builds the default document when empty.
func resolvePolicy(path string) (*onboarding.PolicyDocument, error) {
	if path != "" {
		return onboarding.ReadPolicy(path)
	}
	policy := onboarding.DefaultPolicy()
	fallback := onboarding.DefaultFallbackLocation
	return &onboarding.PolicyDocument{
		Version:  onboarding.PolicyVersion,
		Policy:   &policy,
		Fallback: &fallback,
	}, nil
}

func writePolicy(w io.Writer, doc *onboarding.PolicyDocument) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("evchargerctl: write policy: %w", err)
	}
	return nil
}
