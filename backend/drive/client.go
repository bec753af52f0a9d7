package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/lib/pacer"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	driveFolderType = fs.FolderMimeType
	timeFormatIn    = time.RFC3339
	timeFormatOut   = "2006-01-02T15:04:05.000000000Z07:00"
	// fields fetched for listing, search and created items
	partialFields = "id,name,mimeType,size,fullFileExtension,modifiedTime,parents"
	// fields fetched when only summing sizes
	sizeFields       = "id,name,mimeType,size"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files"
)

// Client is the set of Drive calls the Fs is built on. List and
// Search page through the results themselves.
type Client interface {
	// ListChildren returns the untrashed items in the folder parentID
	ListChildren(ctx context.Context, parentID string, fields googleapi.Field) ([]*drive.File, error)

	// Search returns the untrashed items whose name contains fragment
	Search(ctx context.Context, fragment string) ([]*drive.File, error)

	// Download opens the content of the file id
	Download(ctx context.Context, id string) (io.ReadCloser, error)

	// CreateFolder makes a folder called name in parentID
	CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error)

	// UploadMultipart sends metadata and content in one request
	UploadMultipart(ctx context.Context, info *drive.File, in io.Reader, mimeType string) (*drive.File, error)

	// UploadResumable sends the content in chunks over a resumable
	// session, calling progress after each chunk
	UploadResumable(ctx context.Context, info *drive.File, in io.Reader, size int64, mimeType string, progress func(transferred, total int64)) (*drive.File, error)
}

// Connector makes a Client which authenticates with ts
type Connector func(ctx context.Context, ts oauth2.TokenSource) (Client, error)

// apiClient is the Client for the real Drive v3 API
type apiClient struct {
	svc       *drive.Service
	client    *http.Client
	pacer     *pacer.Pacer
	opt       *Options
	uploadURL string
}

var _ Client = (*apiClient)(nil)

// NewConnector returns the Connector for the real Drive API
func NewConnector(opt *Options) Connector {
	return func(ctx context.Context, ts oauth2.TokenSource) (Client, error) {
		return newAPIClient(ctx, oauth2.NewClient(ctx, ts), opt, "")
	}
}

// newAPIClient makes an apiClient using client for transport. If
// endpoint is set it replaces the Google API base URL.
func newAPIClient(ctx context.Context, client *http.Client, opt *Options, endpoint string) (*apiClient, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	uploadURL := defaultUploadURL
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		uploadURL = strings.TrimSuffix(endpoint, "/") + "/upload/drive/v3/files"
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create Drive client")
	}
	return &apiClient{
		svc:       svc,
		client:    client,
		pacer:     newPacer(opt),
		opt:       opt,
		uploadURL: uploadURL,
	}, nil
}

func newPacer(opt *Options) *pacer.Pacer {
	return pacer.New().
		SetMinSleep(time.Duration(opt.PacerMinSleep)).
		SetBurst(opt.PacerBurst)
}

// shouldBackOff returns true if err says Drive wants us to slow down
func shouldBackOff(err error) bool {
	gerr, ok := errors.Cause(err).(*googleapi.Error)
	if !ok {
		return false
	}
	if gerr.Code >= 500 && gerr.Code < 600 {
		return true
	}
	if len(gerr.Errors) > 0 {
		reason := gerr.Errors[0].Reason
		if reason == "rateLimitExceeded" || reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}

// escapeQuery quotes s for use inside '' in a Drive query
func escapeQuery(s string) string {
	// Escaping the backslash isn't documented but seems to work
	s = strings.Replace(s, `\`, `\\`, -1)
	return strings.Replace(s, `'`, `\'`, -1)
}

// list runs the query q fetching fields for each item
func (c *apiClient) list(ctx context.Context, q string, fields googleapi.Field) (items []*drive.File, err error) {
	call := c.svc.Files.List().Q(q).Context(ctx)
	if c.opt.ListChunk > 0 {
		call.PageSize(c.opt.ListChunk)
	}
	call.Fields(googleapi.Field(fmt.Sprintf("files(%s),nextPageToken", fields)))
	for {
		var files *drive.FileList
		err = c.pacer.Call(ctx, func() (bool, error) {
			files, err = call.Do()
			return shouldBackOff(err), err
		})
		if err != nil {
			return nil, errors.Wrap(err, "couldn't list directory")
		}
		items = append(items, files.Files...)
		if files.NextPageToken == "" {
			return items, nil
		}
		call.PageToken(files.NextPageToken)
	}
}

// ListChildren returns the untrashed items in the folder parentID
func (c *apiClient) ListChildren(ctx context.Context, parentID string, fields googleapi.Field) ([]*drive.File, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(parentID))
	return c.list(ctx, q, fields)
}

// Search returns the untrashed items whose name contains fragment
func (c *apiClient) Search(ctx context.Context, fragment string) ([]*drive.File, error) {
	// Convert ／ to / for search
	fragment = strings.Replace(fragment, "／", "/", -1)
	q := fmt.Sprintf("name contains '%s' and trashed=false", escapeQuery(fragment))
	return c.list(ctx, q, partialFields)
}

// Download opens the content of the file id
func (c *apiClient) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	var res *http.Response
	err := c.pacer.Call(ctx, func() (bool, error) {
		var err error
		res, err = c.svc.Files.Get(id).Context(ctx).Download()
		return shouldBackOff(err), err
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't download file")
	}
	return res.Body, nil
}

// CreateFolder makes a folder called name in parentID
func (c *apiClient) CreateFolder(ctx context.Context, name, parentID string) (info *drive.File, err error) {
	createInfo := &drive.File{
		Name:     name,
		MimeType: driveFolderType,
		Parents:  []string{parentID},
	}
	err = c.pacer.Call(ctx, func() (bool, error) {
		info, err = c.svc.Files.Create(createInfo).
			Fields(partialFields).
			Context(ctx).
			Do()
		return shouldBackOff(err), err
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create folder")
	}
	return info, nil
}

// UploadMultipart sends metadata and content in a single request
func (c *apiClient) UploadMultipart(ctx context.Context, info *drive.File, in io.Reader, mimeType string) (created *drive.File, err error) {
	err = c.pacer.Call(ctx, func() (bool, error) {
		created, err = c.svc.Files.Create(info).
			Media(in, googleapi.ContentType(mimeType), googleapi.ChunkSize(0)).
			Fields(partialFields).
			Context(ctx).
			Do()
		return shouldBackOff(err), err
	})
	if err != nil {
		return nil, errors.Wrap(err, "multipart upload failed")
	}
	return created, nil
}
