// Command ringfsctl inspects and drives a ringfs flash image from the host:
// format a new image, append and fetch objects, and open an interactive
// shell over it. It operates on a plain file standing in for a flash chip
// (see ringfs/internal/flashio.FilePartition) plus a JSONC sidecar
// describing the image's geometry.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	commands := allCommands()

	if len(args) == 0 {
		printUsage(errOut, commands)
		return 1
	}

	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out, commands)
		return 0
	}

	for _, c := range commands {
		if c.Name == args[0] {
			return c.run(out, errOut, args[1:])
		}
	}

	fmt.Fprintln(errOut, "error: unknown command:", args[0])
	printUsage(errOut, commands)
	return 1
}

func printUsage(w io.Writer, commands []*command) {
	fmt.Fprintln(w, "Usage: ringfsctl <command> [flags] [args]")
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintln(w, c.helpLine())
	}
	fmt.Fprintln(w, "\nRun 'ringfsctl <command> --help' for flags on a given command.")
}
