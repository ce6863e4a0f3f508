package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// command defines one ringfsctl subcommand with unified flag parsing and
// help generation, the pattern internal/cli/command.go uses for tk's
// subcommands.
type command struct {
	// Name is the subcommand's first word, e.g. "format".
	Name string

	// Usage is the freeform usage string shown after "ringfsctl <name> ".
	Usage string

	// Short is a one-line description for the top-level help listing.
	Short string

	// Flags defines command-specific flags. May be nil for commands that
	// take none.
	Flags *flag.FlagSet

	// Exec runs the command after flags are parsed. args are the
	// non-flag positional arguments.
	Exec func(out, errOut io.Writer, args []string) error
}

func (c *command) helpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Name+" "+c.Usage, c.Short)
}

func (c *command) printHelp(errOut io.Writer) {
	fmt.Fprintf(errOut, "Usage: ringfsctl %s %s\n", c.Name, c.Usage)
	if c.Flags != nil && c.Flags.HasFlags() {
		fmt.Fprintln(errOut, "\nFlags:")
		c.Flags.SetOutput(errOut)
		c.Flags.PrintDefaults()
	}
}

// run parses flags, dispatches to Exec, and returns a process exit code.
func (c *command) run(out, errOut io.Writer, args []string) int {
	if c.Flags != nil {
		c.Flags.SetOutput(&strings.Builder{}) // discard pflag's own error text

		if err := c.Flags.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				c.printHelp(errOut)
				return 0
			}
			fmt.Fprintln(errOut, "error:", err)
			c.printHelp(errOut)
			return 1
		}
		args = c.Flags.Args()
	}

	if err := c.Exec(out, errOut, args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}
