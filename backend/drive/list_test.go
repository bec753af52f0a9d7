package drive

import (
	"testing"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/fstest/mockdrive"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDirRoot(t *testing.T) {
	fx := newFixture(t, nil)
	docs := fx.md.AddFolder(mockdrive.RootID, "docs")
	file := fx.md.AddFile(mockdrive.RootID, "notes.TXT", []byte("hello"))

	entries := fx.list(t, "gdrive:")
	require.Len(t, entries, 2)

	assert.Equal(t, "docs", entries[0].Name)
	assert.Equal(t, "gdrive:/docs", entries[0].Path)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, int64(0), entries[0].Size)

	assert.Equal(t, "notes.TXT", entries[1].Name)
	assert.Equal(t, "gdrive:/notes.TXT", entries[1].Path)
	assert.False(t, entries[1].IsDir)
	assert.Equal(t, int64(5), entries[1].Size)
	assert.Equal(t, ".txt", entries[1].Extension)
	assert.Regexp(t, `^\d{4}-\d\d-\d\d \d\d:\d\d:\d\d$`, entries[1].LastModified)

	o, ok := fx.f.cache.Get("gdrive:/docs")
	require.True(t, ok)
	assert.Equal(t, docs, o.ID)
	o, ok = fx.f.cache.Get("gdrive:/notes.TXT")
	require.True(t, ok)
	assert.Equal(t, file, o.ID)
	assert.Equal(t, partialFields, string(fx.md.Fields()[0]))
}

func TestReadDirNested(t *testing.T) {
	fx := newFixture(t, nil)
	docs := fx.md.AddFolder(mockdrive.RootID, "docs")
	fx.md.AddFile(docs, "a.txt", nil)

	fx.list(t, "gdrive:")
	entries := fx.list(t, "gdrive:/docs/")
	require.Len(t, entries, 1)
	assert.Equal(t, "gdrive:/docs/a.txt", entries[0].Path)
}

func TestReadDirEmpty(t *testing.T) {
	fx := newFixture(t, nil)
	entries := fx.list(t, "gdrive:")
	assert.NotNil(t, entries)
	assert.Len(t, entries, 0)
}

func TestReadDirNotCached(t *testing.T) {
	fx := newFixture(t, nil)
	docs := fx.md.AddFolder(mockdrive.RootID, "docs")
	fx.md.AddFolder(docs, "b")

	_, err := fx.f.ReadDir(fx.ctx, "gdrive:/docs/b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrorNotCached))
	assert.Equal(t, 0, fx.md.TotalCalls())
}

func TestReadDirIdempotent(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFolder(mockdrive.RootID, "docs")
	fx.md.AddFile(mockdrive.RootID, "a", nil)

	first := fx.list(t, "gdrive:")
	paths := fx.f.cache.Paths()
	second := fx.list(t, "gdrive:")
	assert.Equal(t, first, second)
	assert.Equal(t, paths, fx.f.cache.Paths())
	assert.Equal(t, 3, fx.f.cache.Len())
}

func TestReadDirFile(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.AddFile(mockdrive.RootID, "a", nil)
	fx.list(t, "gdrive:")
	fx.md.ResetCalls()

	_, err := fx.f.ReadDir(fx.ctx, "gdrive:/a")
	assert.True(t, errors.Is(err, fs.ErrorUnsupported))
	assert.Equal(t, 0, fx.md.TotalCalls())
}

func TestReadDirRemoteError(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.Fail(mockdrive.MethodList, errors.New("quota"))
	_, err := fx.f.ReadDir(fx.ctx, "gdrive:")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrorRemoteCall))
	assert.Contains(t, err.Error(), "quota")
	assert.Equal(t, []string{"gdrive:"}, fx.f.cache.Paths())
}

func TestSearch(t *testing.T) {
	fx := newFixture(t, nil)
	docs := fx.md.AddFolder(mockdrive.RootID, "docs")
	fx.md.AddFile(docs, "report-2021.pdf", []byte("x"))
	fx.md.AddFile(mockdrive.RootID, "Report.txt", []byte("y"))
	fx.md.AddFile(mockdrive.RootID, "other", nil)

	// no listing has happened so the parent of the nested match is unknown
	entries, err := fx.f.Search(fx.ctx, "report")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "gdrive:/Report.txt", entries[0].Path)
	assert.Equal(t, "gdrive:/report-2021.pdf", entries[1].Path)
	assert.Equal(t, 0, fx.md.Calls(mockdrive.MethodList))

	// results are cached and usable straight away
	info, err := fx.f.GetItemSize(fx.ctx, "gdrive:/report-2021.pdf")
	require.NoError(t, err)
	assert.Equal(t, fs.SizeInfo{Size: 1, Count: 1}, info)

	// once the parent is known the result is placed under it
	fx.list(t, "gdrive:")
	entries, err = fx.f.Search(fx.ctx, "2021")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gdrive:/docs/report-2021.pdf", entries[0].Path)
}

func TestSearchNoResults(t *testing.T) {
	fx := newFixture(t, nil)
	entries, err := fx.f.Search(fx.ctx, "nothing")
	require.NoError(t, err)
	assert.Len(t, entries, 0)
}

func TestSearchRemoteError(t *testing.T) {
	fx := newFixture(t, nil)
	fx.md.Fail(mockdrive.MethodSearch, errors.New("bad query"))
	_, err := fx.f.Search(fx.ctx, "x")
	assert.True(t, errors.Is(err, fs.ErrorRemoteCall))
}

func TestReadDirAwkwardNames(t *testing.T) {
	fx := newFixture(t, nil)
	a := fx.md.AddFolder(mockdrive.RootID, "a")
	for _, test := range []struct {
		name string
		want string
	}{
		{".", "gdrive:/a/．"},
		{"..", "gdrive:/a/．．"},
		{"...", "gdrive:/a/..."},
		{"x/y", "gdrive:/a/x／y"},
		{`x\y`, `gdrive:/a/x＼y`},
		{".hidden", "gdrive:/a/.hidden"},
	} {
		id := fx.md.AddFile(a, test.name, []byte(test.name))
		fx.list(t, "gdrive:")
		entries := fx.list(t, "gdrive:/a")

		var found bool
		for _, entry := range entries {
			if entry.Path == test.want {
				found = true
			}
		}
		assert.True(t, found, "%q not listed at %q", test.name, test.want)
		o, ok := fx.f.cache.Get(test.want)
		require.True(t, ok, test.name)
		assert.Equal(t, id, o.ID, test.name)
		assert.Equal(t, test.name, o.RemoteName, test.name)

		// the folder itself must be left alone
		dir, ok := fx.f.cache.Get("gdrive:/a")
		require.True(t, ok, test.name)
		assert.Equal(t, a, dir.ID, test.name)
		assert.True(t, dir.IsDir, test.name)
	}
	assert.Len(t, fx.list(t, "gdrive:/a"), 6)
}

func TestCleanName(t *testing.T) {
	for in, want := range map[string]string{
		"plain": "plain",
		".":     "．",
		"..":    "．．",
		"..a":   "..a",
		"a/b/c": "a／b／c",
		`a\b`:   "a＼b",
	} {
		assert.Equal(t, want, cleanName(in), in)
	}
}

func TestLocalName(t *testing.T) {
	for _, test := range []struct {
		remote string
		want   string
	}{
		{"a.txt", "a.txt"},
		{".", "．"},
		{"..", "．．"},
		{"a/b", "a／b"},
	} {
		o := &fs.Object{Name: cleanName(test.remote), RemoteName: test.remote}
		assert.Equal(t, test.want, localName(o), test.remote)
	}
}

func TestSearchKeepsListedPath(t *testing.T) {
	fx := newFixture(t, nil)
	top := fx.md.AddFile(mockdrive.RootID, "report.pdf", []byte("top"))
	x := fx.md.AddFolder(mockdrive.RootID, "x")
	y := fx.md.AddFolder(x, "y")
	nested := fx.md.AddFile(y, "report.pdf", []byte("nested"))
	fx.list(t, "gdrive:")

	entries, err := fx.f.Search(fx.ctx, "report")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	paths := map[string]string{}
	for _, entry := range entries {
		o, ok := fx.f.cache.Get(entry.Path)
		require.True(t, ok, entry.Path)
		paths[o.ID] = entry.Path
	}
	assert.Equal(t, "gdrive:/report.pdf", paths[top])
	assert.Equal(t, "gdrive:/report.pdf {"+nested+"}", paths[nested])

	o, ok := fx.f.cache.Get("gdrive:/report.pdf")
	require.True(t, ok)
	assert.Equal(t, top, o.ID)

	require.NoError(t, fx.local.MkdirAll("/dst", 0777))
	dst, err := fx.f.Download(fx.ctx, "gdrive:/report.pdf", "/dst")
	require.NoError(t, err)
	assert.Equal(t, "top", string(readLocal(t, fx, dst)))

	// the made up path is usable and the file keeps its name locally
	require.NoError(t, fx.local.MkdirAll("/other", 0777))
	dst, err = fx.f.Download(fx.ctx, paths[nested], "/other")
	require.NoError(t, err)
	assert.Equal(t, "/other/report.pdf", dst)
	assert.Equal(t, "nested", string(readLocal(t, fx, dst)))

	// searching again gives the same answer
	entries, err = fx.f.Search(fx.ctx, "report")
	require.NoError(t, err)
	for _, entry := range entries {
		o, ok := fx.f.cache.Get(entry.Path)
		require.True(t, ok)
		assert.Equal(t, paths[o.ID], entry.Path)
	}
}

func TestSearchDuplicateNamesUnlisted(t *testing.T) {
	fx := newFixture(t, nil)
	a := fx.md.AddFolder(mockdrive.RootID, "a")
	b := fx.md.AddFolder(mockdrive.RootID, "b")
	one := fx.md.AddFile(a, "same", []byte("1"))
	two := fx.md.AddFile(b, "same", []byte("22"))

	entries, err := fx.f.Search(fx.ctx, "same")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].Path, entries[1].Path)
	for _, entry := range entries {
		o, ok := fx.f.cache.Get(entry.Path)
		require.True(t, ok)
		assert.Contains(t, []string{one, two}, o.ID)
		info, err := fx.f.GetItemSize(fx.ctx, entry.Path)
		require.NoError(t, err)
		assert.Equal(t, o.Size, info.Size)
	}
}

func TestSearchPrefersRealPath(t *testing.T) {
	fx := newFixture(t, nil)
	x := fx.md.AddFolder(mockdrive.RootID, "x")
	nested := fx.md.AddFile(x, "dup", []byte("nested"))
	top := fx.md.AddFile(mockdrive.RootID, "dup", []byte("top"))

	// the root is always cached so top lands on its real path even
	// when nested is returned first
	entries, err := fx.f.Search(fx.ctx, "dup")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	o, ok := fx.f.cache.Get("gdrive:/dup")
	require.True(t, ok)
	assert.Equal(t, top, o.ID)
	o, ok = fx.f.cache.Get("gdrive:/dup {" + nested + "}")
	require.True(t, ok)
	assert.Equal(t, nested, o.ID)
}
