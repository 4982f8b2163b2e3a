package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Resolve expands command line arguments into documents. An argument may be
// a file, a directory (walked with the include/exclude patterns) or a
// doublestar glob. Results are de-duplicated and sorted by path.
func (w *Walker) Resolve(args []string) ([]FileInfo, error) {
	seen := make(map[string]FileInfo)

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			files, err := w.Walk(arg)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				seen[f.Path] = f
			}
		case err == nil:
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			seen[abs] = FileInfo{Path: abs, ModTime: info.ModTime().Unix(), Size: info.Size()}
		default:
			matches, globErr := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if globErr != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, globErr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no documents match %q: %w", arg, err)
			}
			for _, m := range matches {
				abs, err := filepath.Abs(m)
				if err != nil {
					return nil, err
				}
				st, err := os.Stat(abs)
				if err != nil {
					return nil, err
				}
				seen[abs] = FileInfo{Path: abs, ModTime: st.ModTime().Unix(), Size: st.Size()}
			}
		}
	}

	files := make([]FileInfo, 0, len(seen))
	for _, f := range seen {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {

			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
