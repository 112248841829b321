// lookup is a CLI tool for running one-shot entity lookups against the
// OpenCTI platform. It takes type:value pairs and prints the same envelope
// the HTTP API returns, which makes it useful for smoke-testing credentials
// and search behavior without a running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/external/opencti"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/config"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
)

const version = "1.0.0"

func main() {
	// Define flags
	exact := flag.Bool("exact", false, "Use exact filter matching instead of full-text search")
	jsonOutput := flag.Bool("json", false, "Output the raw lookup envelope as JSON")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall lookup timeout")
	withMarkings := flag.Bool("markings", false, "Include available marking definitions")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "OpenCTI IOC Submission - Lookup CLI v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <type:value> [type:value ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported types: %s\n", supportedTypes())
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s domain:example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -exact IPv4:198.51.100.7 SHA256:e3b0c44298fc1c149afbf4c8996fb924...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -json -markings url:http://bad.example.com/payload\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("lookup v%s\n", version)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: At least one type:value argument is required")
		flag.Usage()
		os.Exit(1)
	}

	// Parse entity arguments
	entities := make([]entity.InputEntity, 0, flag.NArg())
	for _, arg := range flag.Args() {
		e, err := parseEntityArg(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		entities = append(entities, e)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.OpenCTI.URL == "" || cfg.OpenCTI.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: OPENCTI_URL and OPENCTI_API_KEY must be set")
		os.Exit(1)
	}

	client := opencti.NewClient(opencti.Config{
		URL:               cfg.OpenCTI.URL,
		APIKey:            cfg.OpenCTI.APIKey,
		Timeout:           cfg.OpenCTI.Timeout,
		RequestsPerSecond: cfg.OpenCTI.RateLimit,
		Burst:             cfg.OpenCTI.RateBurst,
		SearchExact:       *exact || cfg.OpenCTI.SearchExact,
		PageSize:          cfg.OpenCTI.PageSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// One-shot markings fetch; the daemon uses a refreshing cache instead
	var markings lookup.MarkingsProvider
	if *withMarkings {
		defs, err := client.MarkingDefinitions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not fetch markings: %v\n", err)
		} else {
			markings = staticMarkings(defs)
		}
	}

	service := lookup.NewService(client, markings, lookup.Settings{
		APIURL:       client.BaseURL(),
		CanCreate:    cfg.Lookup.CanCreate,
		CanAssociate: cfg.Lookup.CanAssociate,
		Permissions:  lookup.Permissions{DeletableKinds: deletableKinds(cfg.Lookup.DeletableKinds)},
	}, nil)

	results, err := service.Assemble(ctx, entities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: lookup failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(results)
		return
	}

	printResults(results)
}

// parseEntityArg splits "type:value" and validates the type. URL values
// contain colons themselves, so only the first colon separates.
func parseEntityArg(arg string) (entity.InputEntity, error) {
	typ, value, ok := strings.Cut(arg, ":")
	if !ok || value == "" {
		return entity.InputEntity{}, fmt.Errorf("argument %q is not type:value", arg)
	}

	t := entity.EntityType(typ)
	if !t.IsSupported() {
		return entity.InputEntity{}, fmt.Errorf("unsupported type %q (expected one of: %s)", typ, supportedTypes())
	}

	return entity.InputEntity{
		Value: value,
		Type:  t,
		IsIP:  t == entity.TypeIPv4 || t == entity.TypeIPv6,
	}, nil
}

func supportedTypes() string {
	names := make([]string, 0, len(entity.SupportedTypes))
	for _, t := range entity.SupportedTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func printResults(results []entity.LookupResult) {
	for _, r := range results {
		fmt.Printf("%s\n", r.DisplayValue)
		fmt.Printf("%s\n\n", strings.Repeat("=", len(r.DisplayValue)))
		fmt.Printf("Summary: %s\n\n", strings.Join(r.Data.Summary, ", "))

		if len(r.Data.Details.Items) > 0 {
			fmt.Printf("ITEMS:\n")
			fmt.Printf("%-12s %-8s %-40s %-7s %s\n", "KIND", "FOUND", "VALUE", "SCORE", "NAME")
			fmt.Printf("%-12s %-8s %-40s %-7s %s\n", strings.Repeat("-", 12), strings.Repeat("-", 8), strings.Repeat("-", 40), strings.Repeat("-", 7), strings.Repeat("-", 25))
			for _, item := range r.Data.Details.Items {
				kind := string(item.Kind)
				if kind == "" {
					kind = "-"
				}
				found := "no"
				if item.FoundInRemote {
					found = "yes"
				}
				value := item.EntityValue
				if len(value) > 40 {
					value = value[:37] + "..."
				}
				fmt.Printf("%-12s %-8s %-40s %-7d %s\n", kind, found, value, item.Score, item.DisplayName)
			}
			fmt.Println()
		}

		if len(r.Data.Details.IgnoredEntities) > 0 {
			fmt.Printf("IGNORED:\n")
			for _, item := range r.Data.Details.IgnoredEntities {
				fmt.Printf("  %s (%s)\n", item.EntityValue, item.EntityType)
			}
			fmt.Println()
		}

		if len(r.Data.Details.Markings) > 0 {
			fmt.Printf("MARKINGS:\n")
			for _, m := range r.Data.Details.Markings {
				fmt.Printf("  %s (%s)\n", m.Definition, m.ID)
			}
		}
	}
}

// staticMarkings adapts a one-shot fetch to the provider interface
type staticMarkings []entity.MarkingDefinition

func (s staticMarkings) Get() []entity.MarkingDefinition { return s }

func deletableKinds(configured []string) []entity.ItemKind {
	kinds := make([]entity.ItemKind, 0, len(configured))
	for _, k := range configured {
		kind := entity.ItemKind(k)
		if kind.IsValid() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
