package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"ringfs"
	"ringfs/internal/flashio"
)

func allCommands() []*command {
	return []*command{
		newFormatCommand(),
		newAppendCommand(),
		newFetchCommand(),
		newDiscardCommand(),
		newCountCommand(),
		newDumpCommand(),
		newShellCommand(),
	}
}

// openLog opens the sidecar config for image, wraps the backing file in a
// [flashio.FilePartition], and scans it into a [ringfs.Log]. The caller must
// Close the returned partition.
func openLog(image string, logf flashio.Logger) (*ringfs.Log, *flashio.FilePartition, imageConfig, error) {
	cfg, err := loadImageConfig(configPath(image))
	if err != nil {
		return nil, nil, imageConfig{}, err
	}

	geo := flashio.Geometry{SectorSize: cfg.SectorSize, SectorOffset: cfg.SectorOffset, SectorCount: cfg.SectorCount}
	part, err := flashio.OpenFilePartition(image, geo, logf)
	if err != nil {
		return nil, nil, imageConfig{}, err
	}

	l := ringfs.New(part, ringfs.Options{Version: cfg.Version, ObjectSize: cfg.ObjectSize})
	l.SetConfig(ringfs.Config{RejectWriteWhenFull: cfg.RejectFull})

	if err := l.Scan(); err != nil {
		part.Close()
		return nil, nil, imageConfig{}, fmt.Errorf("scan %s: %w", image, err)
	}

	return l, part, cfg, nil
}

func newFormatCommand() *command {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	version := fs.Uint32("version", 1, "on-flash schema version")
	objectSize := fs.Int("object-size", 32, "fixed object size in bytes")
	sectorSize := fs.Int("sector-size", 4096, "erase-sector size in bytes")
	sectorCount := fs.Int("sector-count", 8, "number of sectors in the partition")
	reject := fs.Bool("reject-full", false, "return FULL instead of evicting when the ring fills up")

	return &command{
		Name:  "format",
		Usage: "<image>",
		Short: "create or reformat a flash image as an empty ring log",
		Flags: fs,
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one <image> argument")
			}
			image := args[0]

			cfg := imageConfig{
				Version:     *version,
				ObjectSize:  *objectSize,
				SectorSize:  *sectorSize,
				SectorCount: *sectorCount,
				RejectFull:  *reject,
			}

			if err := ensureImageConfigDir(image); err != nil {
				return err
			}

			geo := flashio.Geometry{SectorSize: cfg.SectorSize, SectorCount: cfg.SectorCount}
			logf := flashio.Logger(func(format string, a ...any) { fmt.Fprintf(errOut, format+"\n", a...) })

			part, err := flashio.OpenFilePartition(image, geo, logf)
			if err != nil {
				return err
			}
			defer part.Close()

			l := ringfs.New(part, ringfs.Options{Version: cfg.Version, ObjectSize: cfg.ObjectSize})
			if err := l.Format(); err != nil {
				return fmt.Errorf("format: %w", err)
			}

			if err := writeImageConfig(configPath(image), cfg); err != nil {
				return fmt.Errorf("writing sidecar config: %w", err)
			}

			fmt.Fprintf(out, "formatted %s: capacity %d objects (%d sectors x %d bytes)\n",
				image, l.Capacity(), cfg.SectorCount, cfg.SectorSize)
			return nil
		},
	}
}

func newAppendCommand() *command {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	asHex := fs.Bool("hex", false, "decode <payload> as hex instead of raw text")

	return &command{
		Name:  "append",
		Usage: "<image> <payload>",
		Short: "append one object",
		Flags: fs,
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 2 {
				return errors.New("expected <image> and <payload> arguments")
			}
			image, raw := args[0], args[1]

			payload := []byte(raw)
			if *asHex {
				decoded, err := hex.DecodeString(raw)
				if err != nil {
					return fmt.Errorf("decoding hex payload: %w", err)
				}
				payload = decoded
			}

			l, part, cfg, err := openLog(image, nil)
			if err != nil {
				return err
			}
			defer part.Close()

			if len(payload) > cfg.ObjectSize {
				return fmt.Errorf("payload is %d bytes, object size is %d", len(payload), cfg.ObjectSize)
			}

			if err := l.Append(payload); err != nil {
				return fmt.Errorf("append: %w", err)
			}

			n, err := l.CountExact()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "appended %d bytes; %d objects now stored\n", len(payload), n)
			return nil
		},
	}
}

func newFetchCommand() *command {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	all := fs.Bool("all", false, "fetch every remaining object instead of just one")
	discard := fs.Bool("discard", false, "commit the fetch(es) so they are not returned again")

	return &command{
		Name:  "fetch",
		Usage: "<image>",
		Short: "read the oldest undiscarded object(s)",
		Flags: fs,
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one <image> argument")
			}

			l, part, cfg, err := openLog(args[0], nil)
			if err != nil {
				return err
			}
			defer part.Close()

			buf := make([]byte, cfg.ObjectSize)
			fetched := 0
			for {
				n, err := l.Fetch(buf)
				if errors.Is(err, ringfs.ErrEmpty) {
					break
				}
				if err != nil {
					return fmt.Errorf("fetch: %w", err)
				}
				fmt.Fprintf(out, "%s\n", formatPayload(buf[:n]))
				fetched++
				if !*all {
					break
				}
			}

			if *discard {
				if err := l.Discard(); err != nil {
					return fmt.Errorf("discard: %w", err)
				}
			}

			fmt.Fprintf(errOut, "%d object(s) fetched\n", fetched)
			return nil
		},
	}
}

func newDiscardCommand() *command {
	return &command{
		Name:  "discard",
		Usage: "<image>",
		Short: "commit fetched objects; a fresh run has fetched none (see fetch --discard)",
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one <image> argument")
			}
			l, part, _, err := openLog(args[0], nil)
			if err != nil {
				return err
			}
			defer part.Close()

			if err := l.Discard(); err != nil {
				return fmt.Errorf("discard: %w", err)
			}
			fmt.Fprintln(out, "discarded")
			return nil
		},
	}
}

func newCountCommand() *command {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	exact := fs.Bool("exact", false, "scan for an exact count instead of the O(1) estimate")

	return &command{
		Name:  "count",
		Usage: "<image>",
		Short: "report the number of undiscarded objects",
		Flags: fs,
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one <image> argument")
			}
			l, part, _, err := openLog(args[0], nil)
			if err != nil {
				return err
			}
			defer part.Close()

			var n int
			if *exact {
				n, err = l.CountExact()
			} else {
				n, err = l.CountEstimate()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d\n", n)
			return nil
		},
	}
}

func newDumpCommand() *command {
	return &command{
		Name:  "dump",
		Usage: "<image>",
		Short: "print a human-readable summary of sector and cursor state",
		Exec: func(out, errOut io.Writer, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one <image> argument")
			}
			l, part, _, err := openLog(args[0], nil)
			if err != nil {
				return err
			}
			defer part.Close()

			return l.Dump(out)
		},
	}
}

// formatPayload renders a fetched object for terminal display: as text if
// it looks printable, otherwise as hex.
func formatPayload(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return hex.EncodeToString(b)
		}
	}
	return strings.TrimRight(string(b), "\x00")
}
