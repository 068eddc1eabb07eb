package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/richhaase/reviewbridge/internal/domain"
	"github.com/richhaase/reviewbridge/internal/runner"
	"github.com/richhaase/reviewbridge/internal/stream"
)

// schemaTypes maps the names accepted by the schema command to the value
// whose JSON form they describe.
var schemaTypes = map[string]any{
	"event":             stream.Event{},
	"parse-result":      domain.ParseResult{},
	"run-result":        domain.RunResult{},
	"probe-result":      runner.ProbeResult{},
	"invocation":        argsOutput{},
	"extraction-config": domain.ExtractionConfig{},
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// reflectSchema builds an inlined JSON Schema for the named output type.
func reflectSchema(name string) (*jsonschema.Schema, error) {
	v, ok := schemaTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q, supported: %s", name, strings.Join(schemaNames(), ", "))
	}
	reflector := &jsonschema.Reflector{
		DoNotReference: true, // Inline all definitions instead of using $ref
		ExpandedStruct: true,
	}
	return reflector.Reflect(v), nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema <type>",
		Short:     "Print the JSON Schema of an output type",
		Long:      "Print the JSON Schema of a type written by the other commands: " + strings.Join(schemaNames(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: schemaNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := reflectSchema(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), schema)
		},
	}
}
