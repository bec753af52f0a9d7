package drive

import (
	"context"

	"github.com/TheHighestBit/CoDriver/fs"
)

// GetItemSize returns the size of the file at remote, or the total
// size of every file below the folder at remote. Count includes
// every folder walked, the top one too.
//
// Only remote itself has to be cached. The walk below it fetches the
// minimum of fields and caches nothing.
func (f *Fs) GetItemSize(ctx context.Context, remote string) (fs.SizeInfo, error) {
	c, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return fs.SizeInfo{}, err
	}
	remote = fs.CleanPath(remote)
	o, err := f.cache.Resolve("get item size", remote)
	if err != nil {
		return fs.SizeInfo{}, err
	}
	if !o.IsDir {
		return fs.SizeInfo{Size: o.Size, Count: 1}, nil
	}
	return f.dirSize(ctx, c, remote, o.ID, 0)
}

// dirSize sums the folder id found at remote
func (f *Fs) dirSize(ctx context.Context, c Client, remote, id string, depth int) (fs.SizeInfo, error) {
	info := fs.SizeInfo{Count: 1}
	if err := ctx.Err(); err != nil {
		return info, err
	}
	if depth >= f.opt.MaxDepth {
		return info, fs.TooDeepError("get item size", remote, f.opt.MaxDepth)
	}
	items, err := c.ListChildren(ctx, id, sizeFields)
	if err != nil {
		return info, fs.RemoteCallError("get item size", remote, err)
	}
	for _, item := range items {
		if item.MimeType != driveFolderType {
			info.Size += item.Size
			info.Count++
			continue
		}
		sub, err := f.dirSize(ctx, c, remote+"/"+cleanName(item.Name), item.Id, depth+1)
		if err != nil {
			return info, err
		}
		info.Size += sub.Size
		info.Count += sub.Count
	}
	return info, nil
}
