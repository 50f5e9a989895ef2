package segment

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/armon/go-radix"
)

// Dict segments text by greedy longest-match against a custom
// dictionary held in a patricia tree. Words absent from the dictionary
// pass through as single tokens.
//
// The dictionary is loaded once per process lifetime, on first Cut.
// The load is idempotent and safe under concurrent Cut calls; a failed
// load is sticky and fails every subsequent Cut (malformed dictionary
// configuration is fatal, not retried).
type Dict struct {
	cfg Config

	once    sync.Once
	loadErr error
	tree    *radix.Tree
}

// NewDict creates a dictionary segmenter. The dictionary is not loaded
// until the first Cut call.
func NewDict(cfg Config) *Dict {
	return &Dict{cfg: cfg}
}

func (d *Dict) Cut(text string) ([]string, error) {
	d.once.Do(d.load)
	if d.loadErr != nil {
		return nil, d.loadErr
	}

	var tokens []string
	for _, field := range strings.Fields(text) {
		tokens = append(tokens, d.cutField(field)...)
	}
	return tokens, nil
}

// cutField applies greedy longest-match within one whitespace-delimited
// field. Runs with no dictionary match are emitted as a single token.
func (d *Dict) cutField(field string) []string {
	var out []string
	runes := []rune(field)
	unmatched := -1 // start of current unmatched run, -1 if none
	for i := 0; i < len(runes); {
		rest := string(runes[i:])
		prefix, _, ok := d.tree.LongestPrefix(rest)
		if ok && len(prefix) > 0 {
			if unmatched >= 0 {
				out = append(out, string(runes[unmatched:i]))
				unmatched = -1
			}
			out = append(out, prefix)
			i += len([]rune(prefix))
			continue
		}
		if unmatched < 0 {
			unmatched = i
		}
		i++
	}
	if unmatched >= 0 {
		out = append(out, string(runes[unmatched:]))
	}
	return out
}

// load resolves the dictionary directory, extracting the configured
// archive first when auto-extraction is not provided by the runtime,
// then inserts every dictionary word into the patricia tree.
func (d *Dict) load() {
	dir := d.cfg.DicDir
	if d.cfg.DicZipName != "" && !d.cfg.AutoExtract {
		extracted, err := extractArchive(d.cfg.DicDir, d.cfg.DicZipName)
		if err != nil {
			d.loadErr = err
			return
		}
		dir = extracted
	}

	tree := radix.New()
	words := 0
	entries, err := os.ReadDir(dir)
	if err != nil {
		d.loadErr = fmt.Errorf("failed to read dictionary dir %s: %w", dir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		n, err := loadDictFile(tree, filepath.Join(dir, entry.Name()))
		if err != nil {
			d.loadErr = err
			return
		}
		words += n
	}
	if words == 0 {
		d.loadErr = fmt.Errorf("no dictionary words found under %s", dir)
		return
	}

	d.tree = tree
	slog.Debug("segmenter dictionary loaded",
		"dir", dir,
		"words", words)
}

// loadDictFile reads one dictionary file. Each line is a word,
// optionally followed by a frequency and tag which are ignored.
func loadDictFile(tree *radix.Tree, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dictionary file: %w", err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		tree.Insert(fields[0], struct{}{})
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("failed to scan dictionary file %s: %w", path, err)
	}
	return n, nil
}

// extractArchive unpacks <dicZipName>.zip from dir into a sibling
// directory named after the archive and returns that directory.
// Re-extraction over an existing tree is harmless: entries are
// overwritten with identical content.
func extractArchive(dir, zipName string) (string, error) {
	zipPath := filepath.Join(dir, zipName+".zip")
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open dictionary archive %s: %w", zipPath, err)
	}
	defer r.Close()

	dest := filepath.Join(dir, zipName)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create extraction dir: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Flatten archive structure; dictionaries are plain word lists
		target := filepath.Join(dest, filepath.Base(f.Name))
		if err := extractFile(f, target); err != nil {
			return "", err
		}
	}
	return dest, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	w, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer w.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}
