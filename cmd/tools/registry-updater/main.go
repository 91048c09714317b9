// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"knowledge-workers/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	validatePath := validateCmd.String("path", "", "Path to a facilities YAML file (default: embedded registry)")
	listPath := listCmd.String("path", "", "Path to a facilities YAML file (default: embedded registry)")
	listSites := listCmd.Bool("sites", false, "List contact directory cities instead of facilities")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := load(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d facilities, %d aliases, %d sites.\n",
			len(reg.All()), len(reg.AliasNames()), len(reg.Sites()))

	case "list":
		listCmd.Parse(os.Args[2:])
		reg, err := load(*listPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		if *listSites {
			printSites(os.Stdout, reg)
		} else {
			printFacilities(os.Stdout, reg)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func load(path string) (*registry.FacilityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.Load(path)
}

func printFacilities(w io.Writer, reg *registry.FacilityRegistry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOUNTRY\tLAT\tLON\tEMAIL\tPHONE")
	for _, f := range reg.All() {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%s\t%s\n",
			f.Name, f.Country, f.Coordinates.Lat, f.Coordinates.Lon, f.Email, f.Phone)
	}
	tw.Flush()
}

func printSites(w io.Writer, reg *registry.FacilityRegistry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tCOUNTRY\tURL")
	for _, s := range reg.Sites() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.City, s.Country, reg.CampusURL(s.City))
	}
	tw.Flush()
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  validate  Validate a facilities file (or the embedded registry)
  list      Print facilities, or contact directory sites with -sites
  help      Show this help message

Examples:
  registry-updater validate
  registry-updater validate -path pkg/registry/facilities.yaml
  registry-updater list -sites

Use 'registry-updater <command> -h' for more information about a command.
`)
}
