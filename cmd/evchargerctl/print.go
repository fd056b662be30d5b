package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-evcharger/components/onboarding"
)

type printCmd struct {
	Payload string `arg:"" type:"existingfile" help:"Payload JSON produced by the summary step."`
	Format  string `enum:"pdf,xlsx" default:"pdf" help:"Output format (pdf or xlsx)."`
	Out     string `short:"o" type:"path" help:"Output file (defaults to the payload name with the format extension)."`
}

func (cmd *printCmd) Run(_ context.Context) error {
	raw, err := os.ReadFile(cmd.Payload)
	if err != nil {
		return fmt.Errorf("evchargerctl: read payload: %w", err)
	}
	var payload onboarding.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("evchargerctl: parse payload: %w", err)
	}
	if err := onboarding.NewJSONSchemaValidator().Validate(payload); err != nil {
		return err
	}

	var body []byte
	switch cmd.Format {
	case "xlsx":
		body, err = onboarding.BuildPayloadXLSX(payload)
	default:
		body, err = onboarding.BuildPayloadPDF(payload, time.Now())
	}
	if err != nil {
		return err
	}

	out := cmd.Out
	if out == "" {
		out = strings.TrimSuffix(cmd.Payload, ".json") + "." + cmd.Format
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("evchargerctl: write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stdout, "✓ Wrote %s\n", out)
	return nil
}
