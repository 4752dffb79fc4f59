// Package walker discovers the Java source files a run operates on.
// Directories are walked recursively with hidden and vendored trees
// pruned; files pass extension, language, binary and size filters.
// Explicitly named files skip the language filter but never the binary
// and size checks.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/impsort/pkg/textutil"
)

const (
	javaExtension = ".java"
	javaLanguage  = "Java"
)

// Options fixes a walker's filtering behavior.
type Options struct {
	// MaxFileSize excludes files larger than this many bytes; zero means
	// no limit.
	MaxFileSize uint64

	// IncludeVendored disables vendor-directory pruning.
	IncludeVendored bool
}

// Walker finds candidate source files under a set of roots.
type Walker struct {
	opts Options
	log  *slog.Logger
}

// New builds a Walker. A nil logger falls back to slog.Default.
func New(opts Options, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Walker{opts: opts, log: logger}
}

// Discover walks the roots and returns the admitted file paths, sorted
// and deduplicated. A root may be a directory or a single file; a root
// that cannot be stat'ed fails the whole discovery.
func (w *Walker) Discover(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]struct{})

	var files []string

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat root: %w", err)
		}

		if !info.IsDir() {
			if w.admit(root, uint64(info.Size()), true) {
				addUnique(&files, seen, root)
			}

			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			return w.walkEntry(ctx, root, path, entry, err, &files, seen)
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	sort.Strings(files)

	return files, nil
}

func (w *Walker) walkEntry(
	ctx context.Context,
	root, path string,
	entry fs.DirEntry,
	err error,
	files *[]string,
	seen map[string]struct{},
) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		w.log.Warn("skipping unreadable entry", "path", path, "error", err)

		if entry != nil && entry.IsDir() {
			return filepath.SkipDir
		}

		return nil
	}

	if entry.IsDir() {
		if path != root && w.skipDir(path, entry.Name()) {
			return filepath.SkipDir
		}

		return nil
	}

	info, infoErr := entry.Info()
	if infoErr != nil {
		w.log.Warn("skipping entry without file info", "path", path, "error", infoErr)

		return nil
	}

	if w.admit(path, uint64(info.Size()), false) {
		addUnique(files, seen, path)
	}

	return nil
}

func (w *Walker) skipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		w.log.Debug("skipping hidden directory", "path", path)

		return true
	}

	if !w.opts.IncludeVendored && enry.IsVendor(filepath.ToSlash(path)+"/") {
		w.log.Debug("skipping vendored directory", "path", path)

		return true
	}

	return false
}

// admit decides whether one file enters the run. Explicit files bypass
// the extension, vendor and language filters only.
func (w *Walker) admit(path string, size uint64, explicit bool) bool {
	if !explicit {
		if !strings.EqualFold(filepath.Ext(path), javaExtension) {
			return false
		}

		if !w.opts.IncludeVendored && enry.IsVendor(filepath.ToSlash(path)) {
			w.log.Debug("skipping vendored file", "path", path)

			return false
		}
	}

	if w.opts.MaxFileSize > 0 && size > w.opts.MaxFileSize {
		w.log.Debug("skipping file above size limit", "path", path, "size", size)

		return false
	}

	head, err := readHead(path)
	if err != nil {
		w.log.Warn("skipping unreadable file", "path", path, "error", err)

		return false
	}

	if textutil.IsBinary(head) {
		w.log.Debug("skipping binary file", "path", path)

		return false
	}

	if !explicit {
		if lang := enry.GetLanguage(filepath.Base(path), head); lang != javaLanguage {
			w.log.Debug("skipping non-Java file", "path", path, "language", lang)

			return false
		}
	}

	return true
}

// readHead returns up to the binary sniff window from the file start.
func readHead(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	head := make([]byte, textutil.BinarySniffLength)

	n, readErr := io.ReadFull(file, head)
	if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
		return nil, readErr
	}

	return head[:n], nil
}

func addUnique(files *[]string, seen map[string]struct{}, path string) {
	if _, ok := seen[path]; ok {
		return
	}

	seen[path] = struct{}{}
	*files = append(*files, path)
}
