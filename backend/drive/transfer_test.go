package drive

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/fs/config/configmap"
	"github.com/TheHighestBit/CoDriver/fstest/mockdrive"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLocal(t *testing.T, fx *fixture, path string) []byte {
	b, err := util.ReadFile(fx.local, path)
	require.NoError(t, err)
	return b
}

func writeLocal(t *testing.T, fx *fixture, path string, data []byte) {
	require.NoError(t, util.WriteFile(fx.local, path, data, 0644))
}

func TestDownload(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFile(mockdrive.RootID, "a.txt", []byte("hello world"))
	fx.list(t, "gdrive:")
	require.NoError(t, fx.local.MkdirAll("/tmp", 0777))

	dst, err := fx.f.Download(fx.ctx, "gdrive:/a.txt", "/tmp")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.txt", dst)
	assert.Equal(t, "hello world", string(readLocal(t, fx, dst)))
}

func TestDownloadNotCached(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFile(mockdrive.RootID, "a.txt", []byte("x"))
	_, err := fx.f.Download(fx.ctx, "gdrive:/a.txt", "/tmp")
	assert.True(t, errors.Is(err, fs.ErrorNotCached))
	assert.Equal(t, 0, fx.md.TotalCalls())
}

func TestDownloadDirectory(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFolder(mockdrive.RootID, "docs")
	fx.list(t, "gdrive:")
	_, err := fx.f.Download(fx.ctx, "gdrive:/docs", "/tmp")
	assert.True(t, errors.Is(err, fs.ErrorUnsupported))
}

func TestDownloadRemoteError(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFile(mockdrive.RootID, "a.txt", []byte("x"))
	fx.list(t, "gdrive:")
	fx.md.Fail(mockdrive.MethodDownload, errors.New("403"))

	_, err := fx.f.Download(fx.ctx, "gdrive:/a.txt", "/tmp")
	assert.True(t, errors.Is(err, fs.ErrorRemoteCall))
	_, statErr := fx.local.Stat("/tmp/a.txt")
	assert.Error(t, statErr)
}

func TestUploadThreshold(t *testing.T) {
	for _, test := range []struct {
		name          string
		size          int
		wantMultipart int
		wantResumable int
	}{
		{"empty", 0, 1, 0},
		{"at cutoff", int(5 * fs.Mebi), 1, 0},
		{"over cutoff", int(5*fs.Mebi) + 1, 0, 1},
	} {
		t.Run(test.name, func(t *testing.T) {
			var progress []int64
			fx := newFixture(t, nil, WithProgress(func(remote string, transferred, total int64) {
				assert.Equal(t, "gdrive:/blob.bin", remote)
				assert.Equal(t, int64(test.size), total)
				progress = append(progress, transferred)
			}))
			data := bytes.Repeat([]byte{'z'}, test.size)
			writeLocal(t, fx, "/src/blob.bin", data)

			require.NoError(t, fx.f.Upload(fx.ctx, "/src/blob.bin", "gdrive:"))
			assert.Equal(t, test.wantMultipart, fx.md.Calls(mockdrive.MethodMultipart))
			assert.Equal(t, test.wantResumable, fx.md.Calls(mockdrive.MethodResumable))
			if test.wantResumable > 0 {
				require.NotEmpty(t, progress)
				assert.Equal(t, int64(test.size), progress[len(progress)-1])
			} else {
				assert.Empty(t, progress)
			}

			item, ok := fx.md.Find(mockdrive.RootID, "blob.bin")
			require.True(t, ok)
			assert.Equal(t, int64(test.size), item.Size)
			o, ok := fx.f.cache.Get("gdrive:/blob.bin")
			require.True(t, ok)
			assert.Equal(t, item.Id, o.ID)
		})
	}
}

func TestUploadCutoffConfig(t *testing.T) {
	fx := newFixture(t, configmap.Simple{"upload_cutoff": "1Ki"})
	writeLocal(t, fx, "/src/a", make([]byte, 1025))
	require.NoError(t, fx.f.Upload(fx.ctx, "/src/a", "gdrive:"))
	assert.Equal(t, 1, fx.md.Calls(mockdrive.MethodResumable))
}

func TestUploadRoundTrip(t *testing.T) {
	fx := newFixture(t, nil)
	data := []byte("some content\nover two lines\n")
	writeLocal(t, fx, "/src/notes.txt", data)

	require.NoError(t, fx.f.Upload(fx.ctx, "/src/notes.txt", "gdrive:"))
	require.NoError(t, fx.local.MkdirAll("/dst", 0777))
	dst, err := fx.f.Download(fx.ctx, "gdrive:/notes.txt", "/dst")
	require.NoError(t, err)
	assert.Equal(t, data, readLocal(t, fx, dst))
}

func TestUploadMimeType(t *testing.T) {
	fx := newFixture(t, nil)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	writeLocal(t, fx, "/src/pic", png)
	writeLocal(t, fx, "/src/readme", []byte("just some text"))

	require.NoError(t, fx.f.Upload(fx.ctx, "/src/pic", "gdrive:"))
	require.NoError(t, fx.f.Upload(fx.ctx, "/src/readme", "gdrive:"))

	item, ok := fx.md.Find(mockdrive.RootID, "pic")
	require.True(t, ok)
	assert.Equal(t, "image/png", item.MimeType)
	item, ok = fx.md.Find(mockdrive.RootID, "readme")
	require.True(t, ok)
	assert.Equal(t, "text/plain", item.MimeType)

	content, ok := fx.md.Content(item.Id)
	require.True(t, ok)
	assert.Equal(t, "just some text", string(content))
}

func TestUploadDirectory(t *testing.T) {
	fx := newFixture(t, nil)
	writeLocal(t, fx, "/src/top/b.txt", []byte("bb"))
	writeLocal(t, fx, "/src/top/a.txt", []byte("a"))
	writeLocal(t, fx, "/src/top/sub/c.txt", []byte("ccc"))
	require.NoError(t, fx.local.MkdirAll("/src/top/empty", 0777))

	require.NoError(t, fx.f.Upload(fx.ctx, "/src/top/", "gdrive:"))
	assert.Equal(t, 3, fx.md.Calls(mockdrive.MethodMkdir))
	assert.Equal(t, 3, fx.md.Calls(mockdrive.MethodMultipart))

	top, ok := fx.md.Find(mockdrive.RootID, "top")
	require.True(t, ok)
	var names []string
	for _, child := range fx.md.Children(top.Id) {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "empty", "sub"}, names)
	sub, ok := fx.md.Find(top.Id, "sub")
	require.True(t, ok)
	c, ok := fx.md.Find(sub.Id, "c.txt")
	require.True(t, ok)
	assert.Equal(t, int64(3), c.Size)

	for _, p := range []string{"gdrive:/top", "gdrive:/top/sub", "gdrive:/top/sub/c.txt", "gdrive:/top/empty", "gdrive:/top/a.txt"} {
		_, ok := fx.f.cache.Get(p)
		assert.True(t, ok, p)
	}

	info, err := fx.f.GetItemSize(fx.ctx, "gdrive:/top")
	require.NoError(t, err)
	assert.Equal(t, fs.SizeInfo{Size: 6, Count: 6}, info)
}

func TestUploadDirectoryTooDeep(t *testing.T) {
	fx := newFixture(t, configmap.Simple{"max_depth": "1"})
	writeLocal(t, fx, "/src/top/sub/c.txt", []byte("c"))
	err := fx.f.Upload(fx.ctx, "/src/top", "gdrive:")
	assert.True(t, errors.Is(err, fs.ErrorTooDeep))
}

func TestUploadDestNotCached(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFolder(mockdrive.RootID, "docs")
	writeLocal(t, fx, "/src/a", []byte("a"))

	err := fx.f.Upload(fx.ctx, "/src/a", "gdrive:/docs")
	assert.True(t, errors.Is(err, fs.ErrorNotCached))
	assert.Equal(t, 0, fx.md.TotalCalls())
}

func TestUploadDestIsFile(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFile(mockdrive.RootID, "f", nil)
	fx.list(t, "gdrive:")
	writeLocal(t, fx, "/src/a", []byte("a"))

	err := fx.f.Upload(fx.ctx, "/src/a", "gdrive:/f")
	assert.True(t, errors.Is(err, fs.ErrorUnsupported))
}

func TestUploadLocalMissing(t *testing.T) {
	fx := newFixture(t, nil)
	err := fx.f.Upload(fx.ctx, "/src/nope", "gdrive:")
	assert.True(t, errors.Is(err, fs.ErrorLocalIO))
}

func TestUploadRemoteError(t *testing.T) {
	fx := newFixture(t, nil)
	writeLocal(t, fx, "/src/a", []byte("a"))
	fx.md.Fail(mockdrive.MethodMultipart, errors.New("storage quota exceeded"))

	err := fx.f.Upload(fx.ctx, "/src/a", "gdrive:")
	assert.True(t, errors.Is(err, fs.ErrorRemoteCall))
	_, ok := fx.f.cache.Get("gdrive:/a")
	assert.False(t, ok)
}

func TestCreateDir(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFolder(mockdrive.RootID, "docs")
	fx.list(t, "gdrive:")

	// the local path doesn't have to exist
	require.NoError(t, fx.f.CreateDir(fx.ctx, `C:\Users\me\projects\`, "gdrive:/docs"))
	o, ok := fx.f.cache.Get("gdrive:/docs/projects")
	require.True(t, ok)
	assert.True(t, o.IsDir)

	entries := fx.list(t, "gdrive:/docs")
	require.Len(t, entries, 1)
	assert.Equal(t, "projects", entries[0].Name)
}

func TestCreateDirNotCached(t *testing.T) {
	fx := newFixture(t, nil)
	err := fx.f.CreateDir(fx.ctx, "/x/new", "gdrive:/missing")
	assert.True(t, errors.Is(err, fs.ErrorNotCached))
	assert.Equal(t, 0, fx.md.TotalCalls())
}

func TestDetectMimeTypeKeepsContent(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1000)
	mimeType, r, err := detectMimeType(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mimeType)
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDownloadDotDotStaysInDir(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFile(mockdrive.RootID, "..", []byte("up"))
	fx.md.AddFile(mockdrive.RootID, ".", []byte("here"))
	fx.list(t, "gdrive:")
	require.NoError(t, fx.local.MkdirAll("/tmp/in", 0777))

	dst, err := fx.f.Download(fx.ctx, "gdrive:/．．", "/tmp/in")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/in/．．", dst)
	assert.Equal(t, "up", string(readLocal(t, fx, dst)))

	dst, err = fx.f.Download(fx.ctx, "gdrive:/．", "/tmp/in")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/in/．", dst)
	assert.Equal(t, "here", string(readLocal(t, fx, dst)))

	infos, err := fx.local.ReadDir("/tmp")
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestUploadBackslashNames(t *testing.T) {
	if filepath.Separator != '/' {
		t.Skip("backslash is a separator on this OS")
	}
	fx := newFixture(t, nil)
	writeLocal(t, fx, `/src/a\b.txt`, []byte("ab"))
	writeLocal(t, fx, `/src/d\e/x`, []byte("x"))

	require.NoError(t, fx.f.Upload(fx.ctx, "/src", "gdrive:"))
	src, ok := fx.md.Find(mockdrive.RootID, "src")
	require.True(t, ok)
	_, ok = fx.md.Find(src.Id, `a\b.txt`)
	assert.True(t, ok)
	_, ok = fx.md.Find(src.Id, "b.txt")
	assert.False(t, ok)
	de, ok := fx.md.Find(src.Id, `d\e`)
	require.True(t, ok)
	_, ok = fx.md.Find(de.Id, "x")
	assert.True(t, ok)

	for _, p := range []string{"gdrive:/src/a＼b.txt", "gdrive:/src/d＼e", "gdrive:/src/d＼e/x"} {
		_, ok := fx.f.cache.Get(p)
		assert.True(t, ok, p)
	}

	// and back again with the same names
	require.NoError(t, fx.f.Copy(fx.ctx, "gdrive:/src", "/back"))
	assert.Equal(t, "ab", string(readLocal(t, fx, `/back/src/a\b.txt`)))
	assert.Equal(t, "x", string(readLocal(t, fx, `/back/src/d\e/x`)))
}

func TestCreateDirUsesLocalBase(t *testing.T) {
	fx := newFixture(t, nil)
	require.NoError(t, fx.f.CreateDir(fx.ctx, "/x/new/", "gdrive:"))
	_, ok := fx.md.Find(mockdrive.RootID, "new")
	assert.True(t, ok)
	_, ok = fx.f.cache.Get("gdrive:/new")
	assert.True(t, ok)
}
