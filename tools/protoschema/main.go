// Command protoschema writes a JSON schema of the websocket protocol, one
// property per event, for client code generation and payload checks.
package main

import (
	"dice-io-server/pkg/api"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// Protocol lists every payload by event name.
type Protocol struct {
	Start        api.StartPayload        `json:"start"`
	Dash         api.DashPayload         `json:"dash"`
	DebugInspect api.DebugInspectPayload `json:"debug-inspect"`

	Welcome    api.WelcomeMessage    `json:"welcome"`
	State      api.StateMessage      `json:"state"`
	Fight      api.FightMessage      `json:"fight"`
	Eliminated api.EliminatedMessage `json:"eliminated"`
	Debug      api.DebugMessage      `json:"debug"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Protocol))
	schema.Title = "Dice arena websocket protocol"
	schema.Description = `Payloads carried in the "p" field of {"t": event, "p": payload} envelopes`
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	return os.Rename(tmpPath, outPath)
}
