// Package main generates the OpenAPI document of the reeflightd HTTP API
// from the shared route definitions, registered with stub handlers so no
// controller or hardware is needed.
//
// Usage:
//
//	go run ./cmd/reeflight-openapi > openapi.json
//	go run ./cmd/reeflight-openapi --yaml > openapi.yaml
//	go run ./cmd/reeflight-openapi --output openapi.json
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/reeflightd/internal/http/routes"
)

// version is set via ldflags at build time.
var version = "dev"

// generate renders the OpenAPI document as JSON, or YAML when asYAML is set.
func generate(version, baseURL string, asYAML bool) ([]byte, error) {
	// The router is never served
	api := humachi.New(chi.NewRouter(), routes.NewHumaConfig(version, baseURL))
	routes.Register(api, routes.StubHandlers())

	doc := api.OpenAPI()
	if asYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func main() {
	outputFile := pflag.StringP("output", "o", "", "Output file path (default: stdout)")
	outputYAML := pflag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := pflag.String("base-url", "", "Base URL for the API server")
	showVersion := pflag.Bool("version", false, "Print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	data, err := generate(version, *baseURL, *outputYAML)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI document: %v\n", err)
		os.Exit(1)
	}

	if *outputFile == "" {
		fmt.Print(string(data))
		return
	}
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "OpenAPI document written to %s\n", *outputFile)
}
