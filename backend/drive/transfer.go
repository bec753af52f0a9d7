package drive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/lib/readers"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/drive/v3"
)

// sniffLen is how much of a file is read to guess its MIME type
const sniffLen = 3072

// detectMimeType guesses the MIME type of in from its first bytes. The
// returned reader yields the whole of in again.
func detectMimeType(in io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head = head[:n]
	mimeType := mimetype.Detect(head).String()
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType, io.MultiReader(bytes.NewReader(head), in), nil
}

// Download copies the file at from into the local directory toDir
// and returns the path written. The file keeps its Drive name where
// the local filesystem allows it.
func (f *Fs) Download(ctx context.Context, from, toDir string) (string, error) {
	c, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return "", err
	}
	from = fs.CleanPath(from)
	o, err := f.cache.Resolve("download", from)
	if err != nil {
		return "", err
	}
	if o.IsDir {
		return "", fs.UnsupportedError("download", from, "is a directory - use copy")
	}
	dst := filepath.Join(toDir, localName(o))
	in, err := c.Download(ctx, o.ID)
	if err != nil {
		return "", fs.RemoteCallError("download", from, err)
	}
	defer func() {
		_ = in.Close()
	}()
	out, err := f.local.Create(dst)
	if err != nil {
		return "", fs.LocalIOError("download", dst, err)
	}
	src := readers.NewTrackingReader(in)
	n, err := io.Copy(out, src)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = f.local.Remove(dst)
		if src.Err() != nil {
			return "", fs.RemoteCallError("download", from, err)
		}
		return "", fs.LocalIOError("download", dst, err)
	}
	fs.Infof(from, "Downloaded %v to %q", fs.SizeSuffix(n).ByteUnit(), dst)
	return dst, nil
}

// Upload sends the local file or directory tree at localPath into the
// remote folder remoteDest, which must be cached.
//
// Directories are recreated remotely and filled with sub directories
// first, then files.
func (f *Fs) Upload(ctx context.Context, localPath, remoteDest string) error {
	c, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return err
	}
	fi, err := f.local.Stat(localPath)
	if err != nil {
		return fs.LocalIOError("upload", localPath, err)
	}
	return f.upload(ctx, c, localPath, fi, fs.CleanPath(remoteDest), 0)
}

// upload sends localPath described by fi into remoteDest
func (f *Fs) upload(ctx context.Context, c Client, localPath string, fi os.FileInfo, remoteDest string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !fi.IsDir() {
		return f.uploadFile(ctx, c, localPath, fi, remoteDest)
	}
	if depth >= f.opt.MaxDepth {
		return fs.TooDeepError("upload", localPath, f.opt.MaxDepth)
	}
	newDest, err := f.createDir(ctx, c, localPath, remoteDest)
	if err != nil {
		return err
	}
	infos, err := f.local.ReadDir(localPath)
	if err != nil {
		return fs.LocalIOError("upload", localPath, err)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].IsDir() != infos[j].IsDir() {
			return infos[i].IsDir()
		}
		return infos[i].Name() < infos[j].Name()
	})
	for _, child := range infos {
		err := f.upload(ctx, c, filepath.Join(localPath, child.Name()), child, newDest, depth+1)
		if err != nil {
			return err
		}
	}
	return nil
}

// uploadFile sends a single file, choosing multipart or resumable by
// size
func (f *Fs) uploadFile(ctx context.Context, c Client, localPath string, fi os.FileInfo, remoteDest string) error {
	parent, err := f.cache.Resolve("upload", remoteDest)
	if err != nil {
		return err
	}
	if !parent.IsDir {
		return fs.UnsupportedError("upload", remoteDest, "destination is not a directory")
	}
	name := filepath.Base(localPath)
	remote := fs.JoinPath(remoteDest, cleanName(name))
	in, err := f.local.Open(localPath)
	if err != nil {
		return fs.LocalIOError("upload", localPath, err)
	}
	defer func() {
		_ = in.Close()
	}()
	mimeType, body, err := detectMimeType(in)
	if err != nil {
		return fs.LocalIOError("upload", localPath, err)
	}
	size := fi.Size()
	info := &drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{parent.ID},
	}
	if !fi.ModTime().IsZero() {
		info.ModifiedTime = fi.ModTime().UTC().Format(timeFormatOut)
	}
	src := readers.NewTrackingReader(body)
	var item *drive.File
	if size <= int64(f.opt.UploadCutoff) {
		fs.Debugf(remote, "Multipart upload of %v", fs.SizeSuffix(size).ByteUnit())
		item, err = c.UploadMultipart(ctx, info, src, mimeType)
	} else {
		fs.Debugf(remote, "Resumable upload of %v", fs.SizeSuffix(size).ByteUnit())
		item, err = c.UploadResumable(ctx, info, src, size, mimeType, func(transferred, total int64) {
			f.progress(remote, transferred, total)
		})
	}
	if err != nil {
		if src.Err() != nil {
			return fs.LocalIOError("upload", localPath, src.Err())
		}
		return fs.RemoteCallError("upload", remote, err)
	}
	o := objectFromFile(item)
	f.cache.Put(fs.JoinPath(remoteDest, o.Name), o)
	fs.Infof(remote, "Uploaded %v", fs.SizeSuffix(size).ByteUnit())
	return nil
}

// CreateDir makes a folder inside remoteDest named after the last
// element of localPath. Nothing is read from localPath.
func (f *Fs) CreateDir(ctx context.Context, localPath, remoteDest string) error {
	c, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return err
	}
	_, err = f.createDir(ctx, c, localPath, fs.CleanPath(remoteDest))
	return err
}

// createDir makes the folder and returns the path it is cached at
func (f *Fs) createDir(ctx context.Context, c Client, localPath, remoteDest string) (string, error) {
	parent, err := f.cache.Resolve("create dir", remoteDest)
	if err != nil {
		return "", err
	}
	if !parent.IsDir {
		return "", fs.UnsupportedError("create dir", remoteDest, "destination is not a directory")
	}
	name := filepath.Base(localPath)
	item, err := c.CreateFolder(ctx, name, parent.ID)
	if err != nil {
		return "", fs.RemoteCallError("create dir", fs.JoinPath(remoteDest, cleanName(name)), err)
	}
	o := objectFromFile(item)
	remote := fs.JoinPath(remoteDest, o.Name)
	f.cache.Put(remote, o)
	fs.Infof(remote, "Created folder")
	return remote, nil
}
