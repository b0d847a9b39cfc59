package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	. "github.com/farbodahm/bittorrent-info/app"
)

const usage = `usage: mybittorrent [flags] <command> <args>

commands:
  decode <encoded-value>   print a bencoded value as JSON
  info <torrent-file>...   print the tracker URL and length of torrent files

flags:
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit status. Results go to
// stdout, diagnostics to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", 0)

	fs := flag.NewFlagSet("mybittorrent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	maxDepth := fs.Int("max-depth", DefaultMaxDepth, "maximum nesting of lists and dictionaries")
	verbose := fs.Bool("v", false, "trace decoding steps to stderr")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := []Option{WithMaxDepth(*maxDepth)}
	if *verbose {
		opts = append(opts, WithLogger(log.New(stderr, "bencode: ", 0)))
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}
	command, rest := fs.Arg(0), fs.Args()[1:]

	switch command {
	case "decode":
		if len(rest) != 1 {
			logger.Printf("decode takes exactly one argument, got %d", len(rest))
			return 2
		}

		decoded, err := DecodeBencode([]byte(rest[0]), opts...)
		if err != nil {
			logger.Printf("Failed to decode bencoded value: %v", err)
			return 1
		}

		jsonOutput, err := MarshalBNode(&decoded)
		if err != nil {
			logger.Printf("Failed to marshal decoded value: %v", err)
			return 1
		}

		fmt.Fprintln(stdout, string(jsonOutput))

	case "info":
		torrents, err := ParseTorrentFiles(ctx, rest, opts...)
		if err != nil {
			logger.Printf("Failed to parse torrent file: %v", err)
			return 1
		}

		for i, t := range torrents {
			if len(torrents) > 1 {
				if i > 0 {
					fmt.Fprintln(stdout)
				}
				fmt.Fprintf(stdout, "==> %s <==\n", rest[i])
			}
			fmt.Fprintln(stdout, "Tracker URL:", t.Announce)
			fmt.Fprintln(stdout, "Length:", t.Length)
		}

	default:
		logger.Printf("Unknown command: %s", command)
		return 2
	}

	return 0
}
