package drive

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/TheHighestBit/CoDriver/fs"
)

// nameReplacer swaps the path separators for their full width forms
var nameReplacer = strings.NewReplacer("/", "／", `\`, "＼")

// cleanName makes a Drive name safe to use as a path segment.
//
// The names "." and ".." are legal on Drive but would be folded into
// the parent by path cleaning, so they become "．" and "．．".
func cleanName(name string) string {
	switch name {
	case ".":
		return "．"
	case "..":
		return "．．"
	}
	return nameReplacer.Replace(name)
}

// localName is the name o gets on the local disk. This is the Drive
// name unless that can't be a single local path element.
func localName(o *fs.Object) string {
	name := o.RemoteName
	switch {
	case name == "", name == ".", name == "..":
		return o.Name
	case strings.ContainsRune(name, '/'), strings.ContainsRune(name, filepath.Separator):
		return o.Name
	}
	return name
}

// ReadDir lists the direct children of dir, caching each one at
// dir/name. dir must already be cached.
func (f *Fs) ReadDir(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	c, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	dir = fs.CleanPath(dir)
	o, err := f.cache.Resolve("read dir", dir)
	if err != nil {
		return nil, err
	}
	if !o.IsDir {
		return nil, fs.UnsupportedError("read dir", dir, "not a directory")
	}
	items, err := c.ListChildren(ctx, o.ID, partialFields)
	if err != nil {
		return nil, fs.RemoteCallError("read dir", dir, err)
	}
	entries := make([]fs.DirEntry, 0, len(items))
	for _, item := range items {
		child := objectFromFile(item)
		remote := fs.JoinPath(dir, child.Name)
		f.cache.Put(remote, child)
		entries = append(entries, child.DirEntry(remote))
	}
	fs.Debugf(dir, "Listed %d entries", len(entries))
	return entries, nil
}

// Search finds the items anywhere in the drive whose name contains
// fragment. Each result is cached under the path of its parent if
// that parent has been seen, else at the path it was last seen at,
// otherwise directly under the root.
func (f *Fs) Search(ctx context.Context, fragment string) ([]fs.DirEntry, error) {
	c, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	items, err := c.Search(ctx, fragment)
	if err != nil {
		return nil, fs.RemoteCallError("search", fragment, err)
	}
	objects := make([]*fs.Object, len(items))
	remotes := make([]string, len(items))
	// real paths go in first so made up ones can steer clear of them
	for i, item := range items {
		o := objectFromFile(item)
		objects[i] = o
		if remote, ok := f.parentPath(o); ok {
			remotes[i] = remote
			f.cache.Put(remote, o)
		}
	}
	entries := make([]fs.DirEntry, 0, len(items))
	for i, o := range objects {
		if remotes[i] == "" {
			remotes[i] = f.searchPath(o)
			f.cache.Put(remotes[i], o)
		}
		entries = append(entries, o.DirEntry(remotes[i]))
	}
	fs.Debugf(f, "Search for %q found %d items", fragment, len(entries))
	return entries, nil
}

// parentPath returns the path of o under the first of its parents
// which is cached
func (f *Fs) parentPath(o *fs.Object) (string, bool) {
	for _, parentID := range o.Parents {
		if dir, ok := f.cache.GetInv(parentID); ok {
			return fs.JoinPath(dir, o.Name), true
		}
	}
	return "", false
}

// searchPath finds or makes up a path for a search result whose
// parents aren't cached.
//
// A made up path never replaces a different item already cached
// there. The result gets the ID appended to its name instead.
func (f *Fs) searchPath(o *fs.Object) string {
	if remote, ok := f.cache.GetInv(o.ID); ok {
		return remote
	}
	remote := fs.JoinPath(fs.RootPrefix, o.Name)
	if old, ok := f.cache.Get(remote); ok && old.ID != o.ID {
		remote = fs.JoinPath(fs.RootPrefix, o.Name+" {"+o.ID+"}")
		fs.Debugf(o, "Path taken by %q - caching search result as %q", old.ID, remote)
	}
	return remote
}
