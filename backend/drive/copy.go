package drive

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/TheHighestBit/CoDriver/fs"
)

// Copy copies from to. The direction comes from the gdrive: prefix:
// remote to local downloads, recursing into folders, and local to
// remote uploads. Copies with both ends on the same side are not
// supported.
func (f *Fs) Copy(ctx context.Context, from, to string) error {
	if _, err := f.ensureAuthenticated(ctx); err != nil {
		return err
	}
	switch src, dst := fs.IsRemote(from), fs.IsRemote(to); {
	case src && !dst:
		return f.copyToLocal(ctx, fs.CleanPath(from), to, 0)
	case !src && dst:
		return f.Upload(ctx, from, to)
	case src && dst:
		return fs.UnsupportedError("copy", from, "server side copy is not implemented")
	default:
		return fs.UnsupportedError("copy", from, "both paths are local")
	}
}

// copyToLocal copies the remote file or folder from into the local
// directory to
func (f *Fs) copyToLocal(ctx context.Context, from, to string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o, err := f.cache.Resolve("copy", from)
	if err != nil {
		return err
	}
	if !o.IsDir {
		_, err := f.Download(ctx, from, to)
		return err
	}
	if depth >= f.opt.MaxDepth {
		return fs.TooDeepError("copy", from, f.opt.MaxDepth)
	}
	dst := filepath.Join(to, localDirName(o))
	if err := f.local.MkdirAll(dst, 0777); err != nil {
		return fs.LocalIOError("copy", dst, err)
	}
	entries, err := f.ReadDir(ctx, from)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := f.copyToLocal(ctx, entry.Path, dst, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// localDirName is the local name for the folder o
func localDirName(o *fs.Object) string {
	if o.ID == rootID {
		return strings.TrimSuffix(fs.RootPrefix, ":")
	}
	return localName(o)
}

// CopyItems copies each entry into dest in order, stopping at the
// first failure.
func (f *Fs) CopyItems(ctx context.Context, entries []fs.DirEntry, dest string) error {
	for _, entry := range entries {
		if err := f.Copy(ctx, entry.Path, dest); err != nil {
			return err
		}
	}
	return nil
}
