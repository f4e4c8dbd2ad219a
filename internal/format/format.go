// Package format provides file and directory formatting for demolang
// source files.
package format

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/teleivo/linewrap"
	"github.com/teleivo/linewrap/align"
	"github.com/teleivo/linewrap/driver"
	"github.com/teleivo/linewrap/internal/demolang"
	"github.com/teleivo/linewrap/search"
	"github.com/teleivo/linewrap/token"
)

// Reader formats demolang source from r and writes the result to w. A
// non-nil error is a read, parse, formatting or write error, or a
// *linewrap.IncompleteError: in the latter case the formatted text was
// still fully written to w.
func Reader(r io.Reader, w io.Writer, style linewrap.Style, maxStates search.MaxStates) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading input: %v", err)
	}
	out, err := format(string(src), style, maxStates)
	var incomplete *linewrap.IncompleteError
	if err != nil && !errors.As(err, &incomplete) {
		return err
	}
	if _, werr := io.WriteString(w, out); werr != nil {
		return werr
	}
	return err
}

// Dir formats all demolang files (.demo) in a directory tree in place.
func Dir(root string, style linewrap.Style, maxStates search.MaxStates) error {
	var errs []error
	if err := fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, fsErr error) error {
		if fsErr != nil {
			return fsErr
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(d.Name()) != ".demo" {
			return nil
		}

		file := filepath.Join(root, path)
		if err := File(file, style, maxStates); err != nil {
			errs = append(errs, err)
		}
		return nil
	}); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// File formats a single demolang file in-place. A *linewrap.IncompleteError
// still results in the file being rewritten; it is returned alongside
// success so the caller can report which files hit the search-state limit.
func File(path string, style linewrap.Style, maxStates search.MaxStates) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %v", err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file: %v", err)
	}

	out, ferr := format(string(src), style, maxStates)
	var incomplete *linewrap.IncompleteError
	if ferr != nil && !errors.As(ferr, &incomplete) {
		return fmt.Errorf("%s: %w", path, ferr)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for atomic rename: %v", err)
	}

	var success bool
	tmpPath := tmp.Name()
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if perm := fi.Mode().Perm(); perm != 0o600 {
		if err := tmp.Chmod(perm); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to set file mode: %v", err)
		}
	}

	if _, err := io.WriteString(tmp, out); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %v", path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %v", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %v", err)
	}

	success = true
	return ferr
}

func format(src string, style linewrap.Style, maxStates search.MaxStates) (string, error) {
	tree, tokens, err := demolang.Build(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse input: %w", err)
	}
	alignCfg := driver.AlignConfig{
		Schema: demolang.Schema,
		Policy: align.PolicyAlign,
	}
	return driver.Format(tree, tokens, src, style, maxStates, token.DisabledRanges{}, alignCfg, nil)
}
