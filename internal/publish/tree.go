package publish

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// writeTree stores the directory as git tree/blob objects and returns the root
// tree hash. Symlinks and hidden VCS metadata are not expected in generated
// output and are skipped.
func writeTree(s storer.EncodedObjectStorer, dir string) (plumbing.Hash, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	treeEntries := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" {
			continue
		}
		full := filepath.Join(dir, name)

		switch {
		case entry.IsDir():
			sub, err := writeTree(s, full)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			treeEntries = append(treeEntries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: sub})
		case entry.Type().IsRegular():
			blob, err := writeBlob(s, full)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			mode := filemode.Regular
			if info, err := entry.Info(); err == nil && info.Mode()&0o111 != 0 {
				mode = filemode.Executable
			}
			treeEntries = append(treeEntries, object.TreeEntry{Name: name, Mode: mode, Hash: blob})
		default:
			// symlink/device/etc: not part of a static site
			continue
		}
	}

	// Git orders tree entries by name with directories compared as "name/".
	sort.Slice(treeEntries, func(i, j int) bool {
		return treeSortKey(treeEntries[i]) < treeSortKey(treeEntries[j])
	})

	tree := &object.Tree{Entries: treeEntries}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree for %s: %w", dir, err)
	}
	return s.SetEncodedObject(obj)
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

func writeBlob(s storer.EncodedObjectStorer, path string) (plumbing.Hash, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	obj := s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to open blob writer: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob for %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to finalize blob for %s: %w", path, err)
	}
	return s.SetEncodedObject(obj)
}
