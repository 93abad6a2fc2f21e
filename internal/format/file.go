// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/dossier/pkg/types"
)

// Section markers in a saved format file. A marker matches any line that
// contains it, so "#HEADERS" is read as a header section too.
const (
	markerHeader      = "#HEADER"
	markerSearchTerms = "#USEFUL_SEARCH_TERMS"
	markerPrompts     = "#PROMPTS"
)

const (
	// BaseName selects the built-in default format.
	BaseName = "base"

	fileExt = ".txt"
)

// ErrNoColumns is returned when a format requests no columns.
var ErrNoColumns = errors.New("format has no columns")

// Parse reads a saved format from r. The file has three labeled sections:
//
//	#HEADER
//	Name,Institution,Title
//	#USEFUL_SEARCH_TERMS
//	researchgate,ieee
//	#PROMPTS
//	one prompt per line, to end of file
//
// When the prompts section is empty the prompts are built from the columns.
func Parse(r io.Reader) (types.Format, error) {
	var f types.Format
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, markerPrompts):
			for sc.Scan() {
				f.Prompts = append(f.Prompts, sc.Text())
			}
		case strings.Contains(line, markerSearchTerms):
			if sc.Scan() {
				f.Sites = splitList(sc.Text())
			}
		case strings.Contains(line, markerHeader):
			if sc.Scan() {
				f.Columns = splitList(sc.Text())
			}
		}
	}
	if err := sc.Err(); err != nil {
		return types.Format{}, fmt.Errorf("reading format: %w", err)
	}

	f = f.Normalize()
	if len(f.Columns) == 0 {
		return types.Format{}, ErrNoColumns
	}
	if len(f.Prompts) == 0 {
		f.Prompts = BuildPrompts(f.Columns)
	}
	return f, nil
}

// Read loads a saved format from path. The format name is the file name
// without its extension.
func Read(path string) (types.Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.Format{}, fmt.Errorf("opening format %s: %w", path, err)
	}
	defer file.Close()

	f, err := Parse(file)
	if err != nil {
		return types.Format{}, fmt.Errorf("parsing format %s: %w", path, err)
	}
	f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return f, nil
}

// Write saves f to dir/<f.Name>.txt, creating dir if needed, and returns
// the path written.
func Write(dir string, f types.Format) (string, error) {
	if strings.TrimSpace(f.Name) == "" {
		return "", fmt.Errorf("format name is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating format directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(markerHeader + "\n")
	b.WriteString(strings.Join(f.Columns, ",") + "\n")
	b.WriteString(markerSearchTerms + "\n")
	b.WriteString(strings.Join(f.Sites, ",") + "\n")
	b.WriteString(markerPrompts + "\n")
	b.WriteString(strings.Join(f.Prompts, "\n"))

	path := filepath.Join(dir, f.Name+fileExt)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing format %s: %w", path, err)
	}
	return path, nil
}

// Resolve returns the format named by ref. "base" (or an empty ref) is the
// built-in default; a ref naming an existing file is read directly;
// otherwise ref is looked up as dir/<ref>.txt.
func Resolve(ref, dir string) (types.Format, error) {
	if ref == "" || ref == BaseName {
		return Default(), nil
	}
	if _, err := os.Stat(ref); err == nil {
		return Read(ref)
	}
	return Read(filepath.Join(dir, ref+fileExt))
}

// List returns the names of saved formats in dir, sorted. A missing
// directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading format directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func splitList(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
