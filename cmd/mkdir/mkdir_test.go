package mkdir

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

func TestMkdir(t *testing.T) {
	md := mockdrive.New()
	docs := md.AddFolder(mockdrive.RootID, "docs")
	f, err := drive.NewFs(configmap.Simple{},
		drive.WithCredentials(mockdrive.NewCredentials()),
		drive.WithConnector(func(ctx context.Context, ts oauth2.TokenSource) (drive.Client, error) {
			return md, nil
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, Mkdir(ctx, f, "gdrive:/docs/new"))
	item, ok := md.Find(docs, "new")
	require.True(t, ok)
	assert.Equal(t, fs.FolderMimeType, item.MimeType)

	// the new folder can be used straight away
	require.NoError(t, Mkdir(ctx, f, "gdrive:/docs/new/inner"))

	for _, bad := range []string{"gdrive:", "/local"} {
		err := Mkdir(ctx, f, bad)
		assert.True(t, errors.Is(err, fs.ErrorUnsupported), bad)
	}
}
