package ls

import (
	"context"
	"testing"

	"github.com/TheHighestBit/CoDriver/backend/drive"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/fs/config/configmap"
	"github.com/TheHighestBit/CoDriver/fstest/mockdrive"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestList(t *testing.T) {
	md := mockdrive.New()
	a := md.AddFolder(mockdrive.RootID, "a")
	b := md.AddFolder(a, "b")
	md.AddFile(b, "deep.txt", []byte("deep"))
	f, err := drive.NewFs(configmap.Simple{},
		drive.WithCredentials(mockdrive.NewCredentials()),
		drive.WithConnector(func(ctx context.Context, ts oauth2.TokenSource) (drive.Client, error) {
			return md, nil
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	entries, err := List(ctx, f, "gdrive:/a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gdrive:/a/b/deep.txt", entries[0].Path)
	assert.Equal(t, 3, md.Calls(mockdrive.MethodList))

	_, err = List(ctx, f, "/not/remote")
	assert.True(t, errors.Is(err, fs.ErrorUnsupported))

	_, err = List(ctx, f, "gdrive:/a/missing/x")
	assert.True(t, errors.Is(err, fs.ErrorNotCached))
}
