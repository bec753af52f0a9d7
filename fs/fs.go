// Package fs holds the types shared by the CoDriver providers: the
// remote object model, the listing entries returned to callers and
// the Provider interface every front end talks to.
package fs

import (
	"context"
	"path"
	"strings"
	"time"
)

// Constants
const (
	// RootPrefix marks a path as belonging to the remote drive. The
	// bare prefix names the root folder.
	RootPrefix = "gdrive:"

	// FolderMimeType is the MIME type Drive gives folders
	FolderMimeType = "application/vnd.google-apps.folder"

	// DisplayTimeFormat is the layout of DirEntry.LastModified
	DisplayTimeFormat = "2006-01-02 15:04:05"
)

// Object is the last known state of a remote file or folder.
type Object struct {
	ID         string
	Name       string // path element, see RemoteName
	RemoteName string // name as Drive stores it
	MimeType   string
	IsDir      bool
	Size       int64 // 0 for folders
	Extension  string
	ModTime    time.Time
	Parents    []string
}

// String returns the object name
func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return o.Name
}

// Clone returns a deep copy of o
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	if o.Parents != nil {
		c.Parents = append([]string(nil), o.Parents...)
	}
	return &c
}

// DirEntry describes o as seen at remote
func (o *Object) DirEntry(remote string) DirEntry {
	e := DirEntry{
		Name:      o.Name,
		Path:      remote,
		IsDir:     o.IsDir,
		Extension: o.Extension,
	}
	if !o.IsDir {
		e.Size = o.Size
	}
	if !o.ModTime.IsZero() {
		e.LastModified = o.ModTime.UTC().Format(DisplayTimeFormat)
	}
	return e
}

// DirEntry is a single listing or search result.
//
// Path always uses forward slashes so it can be handed straight back
// to any Provider method.
type DirEntry struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	IsDir        bool   `json:"is_dir"`
	Size         int64  `json:"size"`
	Extension    string `json:"extension"`
	LastModified string `json:"last_modified"`
}

// SizeInfo is the aggregate size of a file or folder tree. Count
// includes the folder itself.
type SizeInfo struct {
	Size  int64 `json:"size"`
	Count int64 `json:"count"`
}

// ProgressFn is called as a transfer of remote proceeds
type ProgressFn func(remote string, transferred, total int64)

// Provider is the interface a storage provider presents to the front
// ends. Every method except SignOut authenticates first if needed.
type Provider interface {
	// Authenticate loads or obtains credentials and opens a session
	Authenticate(ctx context.Context) error

	// SignOut forgets the stored credentials and ends the session
	SignOut(ctx context.Context) error

	// ReadDir lists the direct children of dir
	ReadDir(ctx context.Context, dir string) ([]DirEntry, error)

	// Search finds items whose name contains fragment
	Search(ctx context.Context, fragment string) ([]DirEntry, error)

	// GetItemSize returns the recursive size of the item at remote
	GetItemSize(ctx context.Context, remote string) (SizeInfo, error)

	// Download fetches the file at from into the local directory toDir
	Download(ctx context.Context, from, toDir string) (string, error)

	// Upload sends a local file or directory tree into remoteDest
	Upload(ctx context.Context, localPath, remoteDest string) error

	// CreateDir creates a folder named after localPath's final
	// component inside remoteDest
	CreateDir(ctx context.Context, localPath, remoteDest string) error

	// Copy copies from to, choosing direction by the path prefixes
	Copy(ctx context.Context, from, to string) error

	// CopyItems copies each entry into dest in order
	CopyItems(ctx context.Context, entries []DirEntry, dest string) error
}

// IsRemote returns true if p names something on the drive
func IsRemote(p string) bool {
	return strings.HasPrefix(p, RootPrefix)
}

// CleanPath returns the canonical form of the remote path p.
//
// Backslashes become slashes, repeated and trailing slashes are
// removed and the root is always the bare prefix.
func CleanPath(p string) string {
	rest := strings.TrimPrefix(p, RootPrefix)
	rest = strings.ReplaceAll(rest, `\`, "/")
	rest = path.Clean("/" + rest)
	if rest == "/" {
		return RootPrefix
	}
	return RootPrefix + rest
}

// JoinPath returns the remote path of leaf inside dir
func JoinPath(dir, leaf string) string {
	dir = CleanPath(dir)
	if dir == RootPrefix {
		return RootPrefix + "/" + leaf
	}
	return dir + "/" + leaf
}

// SplitPath splits a remote path into its parent directory and leaf.
// The root has no parent and returns itself with an empty leaf.
func SplitPath(p string) (dir, leaf string) {
	p = CleanPath(p)
	if p == RootPrefix {
		return RootPrefix, ""
	}
	i := strings.LastIndex(p, "/")
	dir, leaf = p[:i], p[i+1:]
	if dir == RootPrefix {
		return RootPrefix, leaf
	}
	return dir, leaf
}

// NormalizeExtension returns ext with a single leading dot, or "" if
// there is no extension
func NormalizeExtension(ext string) string {
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}
