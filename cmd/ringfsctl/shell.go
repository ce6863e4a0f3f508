package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"ringfs"
	"ringfs/internal/flashio"
)

func newShellCommand() *command {
	return &command{
		Name:  "shell",
		Usage: "<image>",
		Short: "interactive REPL over a flash image",
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one <image> argument")
			}
			return runShell(out, errOut, args[0])
		},
	}
}

// repl is the interactive command loop, the same liner-backed shape
// cmd/sloty/main.go uses for slotcache: prompt, read a line, dispatch on
// the first word, repeat until exit/EOF.
type repl struct {
	log    *ringfs.Log
	part   *flashio.FilePartition
	cfg    imageConfig
	liner  *liner.State
	out    io.Writer
	errOut io.Writer
}

func runShell(out, errOut io.Writer, image string) error {
	l, part, cfg, err := openLog(image, nil)
	if err != nil {
		return err
	}
	defer part.Close()

	r := &repl{log: l, part: part, cfg: cfg, out: out, errOut: errOut}
	return r.run()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ringfsctl_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(r.out, "ringfsctl shell (object_size=%d, capacity=%d)\n", r.cfg.ObjectSize, r.log.Capacity())
	fmt.Fprintln(r.out, "Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("ringfs> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nbye")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd, cmdArgs := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "append":
			r.cmdAppend(cmdArgs)
		case "fetch":
			r.cmdFetch()
		case "discard":
			r.cmdDiscard()
		case "rewind":
			r.cmdRewind()
		case "count":
			r.cmdCount(cmdArgs)
		case "dump":
			r.log.Dump(r.out)
		default:
			fmt.Fprintf(r.errOut, "unknown command: %s (try 'help')\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) completer(line string) []string {
	choices := []string{"append", "fetch", "discard", "rewind", "count", "dump", "help", "exit"}
	var out []string
	for _, c := range choices {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, `Commands:
  append <text>        append an object (raw text, rejected if too large)
  fetch                read and print the oldest undiscarded object
  discard              commit every object fetched since the last discard/rewind
  rewind               reset the tentative read cursor back to the committed position
  count [exact]        print the object count (estimate, or exact with 'exact')
  dump                 print sector and cursor state
  exit / quit / q      leave the shell`)
}

func (r *repl) cmdAppend(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.errOut, "usage: append <text>")
		return
	}
	payload := []byte(strings.Join(args, " "))
	if len(payload) > r.cfg.ObjectSize {
		fmt.Fprintf(r.errOut, "payload is %d bytes, object size is %d\n", len(payload), r.cfg.ObjectSize)
		return
	}
	if err := r.log.Append(payload); err != nil {
		fmt.Fprintln(r.errOut, "error:", err)
		return
	}
	fmt.Fprintln(r.out, "ok")
}

func (r *repl) cmdFetch() {
	buf := make([]byte, r.cfg.ObjectSize)
	n, err := r.log.Fetch(buf)
	if errors.Is(err, ringfs.ErrEmpty) {
		fmt.Fprintln(r.out, "(empty)")
		return
	}
	if err != nil {
		fmt.Fprintln(r.errOut, "error:", err)
		return
	}
	fmt.Fprintln(r.out, formatPayload(buf[:n]))
}

func (r *repl) cmdDiscard() {
	if err := r.log.Discard(); err != nil {
		fmt.Fprintln(r.errOut, "error:", err)
		return
	}
	fmt.Fprintln(r.out, "ok")
}

func (r *repl) cmdRewind() {
	if err := r.log.Rewind(); err != nil {
		fmt.Fprintln(r.errOut, "error:", err)
		return
	}
	fmt.Fprintln(r.out, "ok")
}

func (r *repl) cmdCount(args []string) {
	exact := len(args) > 0 && args[0] == "exact"
	var n int
	var err error
	if exact {
		n, err = r.log.CountExact()
	} else {
		n, err = r.log.CountEstimate()
	}
	if err != nil {
		fmt.Fprintln(r.errOut, "error:", err)
		return
	}
	fmt.Fprintln(r.out, strconv.Itoa(n))
}
