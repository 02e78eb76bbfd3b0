package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"protoscan/internal/config"
	scanerrors "protoscan/internal/errors"
)

// Walker enumerates candidate source files under a root directory. Traversal
// is lexicographic (filepath.WalkDir order) so repeated runs list files in
// the same order.
type Walker struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	useGitignore bool
	skipRootInit bool
}

func New(exclude config.Exclude) (*Walker, error) {
	w := &Walker{
		useGitignore: exclude.GitignoreEnabled(),
		skipRootInit: exclude.RootInitSkipped(),
	}

	for _, pattern := range exclude.Dirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", pattern, err)
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}
	for _, pattern := range exclude.Files {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", pattern, err)
		}
		w.excludeFiles = append(w.excludeFiles, g)
	}

	return w, nil
}

// Scan walks root and returns candidate file paths. The root must exist:
// a partial analysis over a missing source set is meaningless.
func (w *Walker) Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, scanerrors.Wrap(err, scanerrors.CodeNotFound, fmt.Sprintf("scan root %q", root))
	}
	if !info.IsDir() {
		return nil, scanerrors.Newf(scanerrors.CodeNotFound, "scan root %q is not a directory", root)
	}

	var ign *ignore.GitIgnore
	if w.useGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			ign = gi
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, g := range w.excludeDirs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			if ign != nil && ign.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".py" && ext != ".go" {
			return nil
		}

		if w.skipRootInit && base == "__init__.py" && filepath.Dir(path) == filepath.Clean(root) {
			return nil
		}

		for _, g := range w.excludeFiles {
			if g.Match(base) {
				return nil
			}
		}
		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, scanerrors.Wrap(err, scanerrors.CodeNotFound, "directory traversal failed")
	}

	return files, nil
}
