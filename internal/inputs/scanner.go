// Package inputs turns command line paths into the documents to analyze.
package inputs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docinsight/internal/document"
)

// IsPDF reports whether path has a .pdf extension (any case).
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Collect expands paths into document inputs. Files are taken as given and
// must be PDFs; directories are walked recursively for PDFs, skipping
// hidden directories. A file reached twice is returned once, and files that
// share a name get numbered labels.
func Collect(ctx context.Context, paths []string) ([]document.Input, error) {
	var inputs []document.Input
	seen := make(map[string]bool)
	labels := make(map[string]bool)

	add := func(absPath, name string) {
		if seen[absPath] {
			return
		}
		seen[absPath] = true
		name = uniqueLabel(name, labels)
		labels[name] = true
		inputs = append(inputs, document.Input{Path: absPath, OriginalName: name})
	}

	for _, p := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", p, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", p, err)
		}

		if !info.IsDir() {
			if !IsPDF(absPath) {
				return nil, fmt.Errorf("%s is not a PDF file", p)
			}
			add(absPath, filepath.Base(absPath))
			continue
		}

		root := absPath
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("failed to access path %s: %w", path, err)
			}

			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}

			if !IsPDF(path) {
				return nil
			}

			// Documents found in a directory are labelled relative to it.
			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
			}
			add(path, filepath.ToSlash(relPath))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", p, err)
		}
	}

	return inputs, nil
}

// uniqueLabel numbers name ("report (2).pdf") until it is not in taken.
func uniqueLabel(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}
