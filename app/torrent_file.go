package app

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Torrent holds the metadata the info command reports for a torrent file.
type Torrent struct {
	Announce string // tracker URL
	Length   int64  // total content size in bytes
}

// ExtractTorrent reads the tracker URL and content length out of a decoded
// torrent. Only "announce" and "info.length" are inspected.
func ExtractTorrent(node BNode) (Torrent, error) {
	if node.Type != BDict {
		return Torrent{}, &SchemaError{Reason: "torrent must be a dictionary, got " + node.Type.String()}
	}

	announceNode, ok, _ := node.Lookup("announce")
	if !ok {
		return Torrent{}, &SchemaError{Key: "announce", Reason: "missing"}
	}
	announce, err := announceNode.AsString()
	if err != nil {
		return Torrent{}, &SchemaError{Key: "announce", Reason: "not a text string", Err: err}
	}

	info, ok, _ := node.Lookup("info")
	if !ok {
		return Torrent{}, &SchemaError{Key: "info", Reason: "missing"}
	}
	if info.Type != BDict {
		return Torrent{}, &SchemaError{Key: "info", Reason: "must be a dictionary, got " + info.Type.String()}
	}

	lengthNode, ok, _ := info.Lookup("length")
	if !ok {
		return Torrent{}, &SchemaError{Key: "info.length", Reason: "missing"}
	}
	length, err := lengthNode.AsInt()
	if err != nil {
		return Torrent{}, &SchemaError{Key: "info.length", Reason: "not an integer", Err: err}
	}
	if length < 0 {
		return Torrent{}, &SchemaError{Key: "info.length", Reason: fmt.Sprintf("negative length %d", length)}
	}

	return Torrent{Announce: announce, Length: length}, nil
}

// ParseTorrentFile parses a torrent file to a Torrent object.
func ParseTorrentFile(filePath string, opts ...Option) (Torrent, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return Torrent{}, &IOError{Path: filePath, Err: err}
	}

	decodedTorrent, err := DecodeBencode(file, opts...)
	if err != nil {
		return Torrent{}, err
	}

	return ExtractTorrent(decodedTorrent)
}

// ParseTorrentFiles parses several torrent files concurrently. Results are in
// the order of paths. The first failure cancels the remaining work and is
// returned prefixed with its path.
func ParseTorrentFiles(ctx context.Context, paths []string, opts ...Option) ([]Torrent, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]Torrent, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			t, err := ParseTorrentFile(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
