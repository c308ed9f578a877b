package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/deploymenttheory/go-refs/internal/parsers/directory"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// OpenDirectory opens the directory whose object table entry is id
func (v *Volume) OpenDirectory(id types.ObjectID) (*directory.Tree, error) {
	root, err := v.ObjectRoot(id)
	if err != nil {
		return nil, fmt.Errorf("directory %s: %w", id, err)
	}
	return directory.Open(v.reader, v.containers, root, v.log)
}

// RootDirectory opens the root directory
func (v *Volume) RootDirectory() (*directory.Tree, error) {
	return v.OpenDirectory(types.ObjectIDRootDirectory)
}

// MetadataDirectory opens the file system metadata directory
func (v *Volume) MetadataDirectory() (*directory.Tree, error) {
	return v.OpenDirectory(types.ObjectIDFileSystemMetadata)
}

// SplitPath cleans a slash separated path and returns its components. The root yields none.
func SplitPath(p string) []string {
	cleaned := path.Clean("/" + strings.ReplaceAll(p, `\`, "/"))
	if cleaned == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
}

// ResolvePath walks path from the root directory. It returns the directory holding the last component and
// that component's entry; for the root itself the entry is nil.
func (v *Volume) ResolvePath(p string) (*directory.Tree, *directory.Entry, error) {
	tree, err := v.RootDirectory()
	if err != nil {
		return nil, nil, err
	}

	components := SplitPath(p)
	var entry *directory.Entry
	for i, name := range components {
		entry, err = tree.Resolve(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", "/"+strings.Join(components[:i+1], "/"), err)
		}
		if i == len(components)-1 {
			break
		}
		if !entry.Record.IsDirectory() {
			return nil, nil, fmt.Errorf("%s: not a directory", "/"+strings.Join(components[:i+1], "/"))
		}
		if tree, err = v.OpenDirectory(entry.Record.ObjectID); err != nil {
			return nil, nil, err
		}
	}

	return tree, entry, nil
}

// OpenPath opens the directory at path
func (v *Volume) OpenPath(p string) (*directory.Tree, error) {
	tree, entry, err := v.ResolvePath(p)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return tree, nil
	}
	if !entry.Record.IsDirectory() {
		return nil, fmt.Errorf("%s: not a directory", p)
	}
	return v.OpenDirectory(entry.Record.ObjectID)
}
