package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mediaagent/pkg/logx"
	"mediaagent/pkg/proto"
)

// Scanner walks an assets directory.
type Scanner struct {
	root   string
	prober Prober
	skip   map[string]bool
	logger *logx.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithProber enables duration and codec hints.
func WithProber(p Prober) Option {
	return func(s *Scanner) { s.prober = p }
}

// WithSkipDirs prunes directories by relative path (e.g. a transcript dir
// nested inside the assets dir).
func WithSkipDirs(dirs ...string) Option {
	return func(s *Scanner) {
		for _, d := range dirs {
			if d != "" {
				s.skip[filepath.ToSlash(filepath.Clean(d))] = true
			}
		}
	}
}

// NewScanner creates a scanner rooted at root.
func NewScanner(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:   root,
		skip:   make(map[string]bool),
		logger: logx.NewLogger("inventory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the assets directory.
func (s *Scanner) Root() string {
	return s.root
}

// Scan lists every regular, non-hidden file under the root, sorted by path.
// Paths are relative to the root and use forward slashes. Probe failures
// are logged and leave the hints empty.
func (s *Scanner) Scan(ctx context.Context) (proto.FileInventory, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("assets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets path %s is not a directory", s.root)
	}

	var inv proto.FileInventory
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") || s.skip[rel] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		desc := proto.FileDescriptor{
			Path:      rel,
			SizeBytes: fi.Size(),
			Kind:      KindFor(rel),
		}
		if s.prober != nil && probeable(desc.Kind) && desc.SizeBytes > 0 {
			probed, err := s.prober.Probe(ctx, path)
			if err != nil {
				s.logger.Warn("probe failed for %s: %v", rel, err)
			} else {
				desc.DurationSeconds = probed.DurationSeconds
				desc.Codec = probed.Codec
			}
		}

		inv = append(inv, desc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	inv.Sort()
	s.logger.Debug("scanned %d files under %s", len(inv), s.root)
	return inv, nil
}
