package mockdrive

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
)

func TestTree(t *testing.T) {
	d := New()
	docs := d.AddFolder(RootID, "docs")
	id := d.AddFile(docs, "a.txt", []byte("hello"))

	children := d.Children(RootID)
	require.Len(t, children, 1)
	assert.Equal(t, "docs", children[0].Name)
	assert.Equal(t, FolderMimeType, children[0].MimeType)

	f, ok := d.Find(docs, "a.txt")
	require.True(t, ok)
	assert.Equal(t, id, f.Id)
	assert.Equal(t, int64(5), f.Size)
	assert.Equal(t, "txt", f.FullFileExtension)

	content, ok := d.Content(id)
	require.True(t, ok)
	assert.Equal(t, "hello", string(content))
}

func TestCallsAndFailures(t *testing.T) {
	ctx := context.Background()
	d := New()
	_, err := d.ListChildren(ctx, RootID, "id")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Calls(MethodList))
	assert.Equal(t, 1, d.TotalCalls())

	boom := errors.New("boom")
	d.Fail(MethodList, boom)
	_, err = d.ListChildren(ctx, RootID, "id,name")
	assert.Equal(t, boom, err)
	assert.Equal(t, 2, d.Calls(MethodList))
	assert.Len(t, d.Fields(), 2)

	d.Fail(MethodList, nil)
	d.ResetCalls()
	_, err = d.ListChildren(ctx, RootID, "id")
	assert.NoError(t, err)
	assert.Equal(t, 1, d.TotalCalls())
}

func TestSearch(t *testing.T) {
	d := New()
	docs := d.AddFolder(RootID, "Docs")
	d.AddFile(docs, "Report.pdf", nil)
	d.AddFile(RootID, "notes.txt", nil)

	found, err := d.Search(context.Background(), "rep")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Report.pdf", found[0].Name)
	assert.Equal(t, []string{docs}, found[0].Parents)
}

func TestUploadResumableProgress(t *testing.T) {
	d := New()
	data := bytes.Repeat([]byte{'x'}, progressStep*2+1)
	var last, calls int64
	f, err := d.UploadResumable(context.Background(), &drive.File{Name: "big.bin", Parents: []string{RootID}}, bytes.NewReader(data), int64(len(data)), "application/octet-stream", func(transferred, total int64) {
		calls++
		last = transferred
		assert.Equal(t, int64(len(data)), total)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls)
	assert.Equal(t, int64(len(data)), last)
	assert.Equal(t, int64(len(data)), f.Size)
	assert.Equal(t, 1, d.Calls(MethodResumable))
}

func TestUploadBadParent(t *testing.T) {
	d := New()
	_, err := d.UploadMultipart(context.Background(), &drive.File{Name: "a", Parents: []string{"nope"}}, strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	d := New()
	id := d.AddFile(RootID, "a", []byte("abc"))
	rc, err := d.Download(context.Background(), id)
	require.NoError(t, err)
	b, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))

	_, err = d.Download(context.Background(), "missing")
	assert.Error(t, err)
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	c := NewCredentials()
	token, err := c.LoadOrObtain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)

	require.NoError(t, c.Remove())
	token, err = c.LoadOrObtain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, 2, c.Loads)
	assert.Equal(t, 1, c.Removes)
}
