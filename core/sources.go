package core

import (
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"
)

// excludedDirs are build output and VCS directories never measured.
var excludedDirs = []string{".git", ".gradle", "target", "build", "dist", "node_modules", "out", "coverage"}

// javaLanguage is the enry language name of the measured sources.
const javaLanguage = "Java"

// isJavaSource reports whether a repository path holds Java source, judged by its file name.
func isJavaSource(path string) bool {
	return enry.GetLanguage(filepath.Base(path), nil) == javaLanguage
}

// findJavaSources walks root and returns the slash-separated relative paths of every
// Java source, skipping excluded directories.
func findJavaSources(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && slices.Contains(excludedDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isJavaSource(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}

// moduleRoots groups source paths by the directory holding their "src" segment.
// Paths outside any src tree group by their first segment. Roots nested inside an
// already-kept root are dropped, shallow roots win, and at most limit roots are returned.
func moduleRoots(files []string, limit int) []string {
	seen := make(map[string]struct{})
	for _, f := range files {
		parts := strings.Split(f, "/")
		root := "."
		if i := slices.Index(parts, "src"); i >= 0 {
			if i > 0 {
				root = strings.Join(parts[:i], "/")
			}
		} else if len(parts) > 1 {
			root = parts[0]
		}
		seen[root] = struct{}{}
	}

	roots := make([]string, 0, len(seen))
	for r := range seen {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool {
		di, dj := strings.Count(roots[i], "/"), strings.Count(roots[j], "/")
		if di != dj {
			return di < dj
		}
		if len(roots[i]) != len(roots[j]) {
			return len(roots[i]) < len(roots[j])
		}
		return roots[i] < roots[j]
	})

	// "." never prunes: a top-level src next to mod/src yields both roots, so the
	// module-roots strategy counts mod/src twice in that layout.
	var pruned []string
	for _, r := range roots {
		nested := slices.ContainsFunc(pruned, func(p string) bool {
			return p != "." && strings.HasPrefix(r+"/", p+"/")
		})
		if !nested {
			pruned = append(pruned, r)
		}
	}
	if len(pruned) == 0 {
		pruned = []string{"."}
	}
	if limit > 0 && len(pruned) > limit {
		pruned = pruned[:limit]
	}
	return pruned
}
