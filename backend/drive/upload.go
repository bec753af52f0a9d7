// Resumable uploads for drive
//
// Docs
// Resumable upload: https://developers.google.com/drive/api/guides/manage-uploads#resumable

package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/lib/readers"
	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	// statusResumeIncomplete is the code returned by the Google uploader when the transfer is not yet complete.
	statusResumeIncomplete = 308
)

// resumableUpload is a single resumable upload session
type resumableUpload struct {
	c      *apiClient
	remote string
	// URI is the session URI returned when the upload was started
	URI string
	// Media is the content being uploaded
	Media io.Reader
	// MediaType is the MIME type of Media
	MediaType string
	// ContentLength is the full size of Media
	ContentLength int64
	// progress is called after every chunk
	progress func(transferred, total int64)
	// Return value
	ret *drive.File
}

// UploadResumable starts a resumable session for info and sends in
// through it in chunks of opt.ChunkSize
func (c *apiClient) UploadResumable(ctx context.Context, info *drive.File, in io.Reader, size int64, mimeType string, progress func(transferred, total int64)) (*drive.File, error) {
	params := url.Values{
		"alt":        {"json"},
		"uploadType": {"resumable"},
		"fields":     {partialFields},
	}
	urls := c.uploadURL + "?" + params.Encode()
	var res *http.Response
	err := c.pacer.Call(ctx, func() (bool, error) {
		body, err := googleapi.WithoutDataWrapper.JSONReader(info)
		if err != nil {
			return false, err
		}
		req, err := http.NewRequestWithContext(ctx, "POST", urls, body)
		if err != nil {
			return false, err
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		req.Header.Set("X-Upload-Content-Type", mimeType)
		req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
		res, err = c.client.Do(req)
		if err == nil {
			defer googleapi.CloseBody(res)
			err = googleapi.CheckResponse(res)
		}
		return shouldBackOff(err), err
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't start resumable upload")
	}
	loc := res.Header.Get("Location")
	if loc == "" {
		return nil, errors.New("resumable upload: no session URI returned")
	}
	rx := &resumableUpload{
		c:             c,
		remote:        info.Name,
		URI:           loc,
		Media:         in,
		MediaType:     mimeType,
		ContentLength: size,
		progress:      progress,
	}
	return rx.Upload(ctx)
}

// Make an http.Request for the range passed in
func (rx *resumableUpload) makeRequest(ctx context.Context, start int64, body io.ReadSeeker, reqSize int64) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, "PUT", rx.URI, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = reqSize
	if reqSize != 0 {
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %v-%v/%v", start, start+reqSize-1, rx.ContentLength))
	} else {
		req.Header.Set("Content-Range", fmt.Sprintf("bytes */%v", rx.ContentLength))
	}
	req.Header.Set("Content-Type", rx.MediaType)
	return req, nil
}

// transferChunk sends one chunk and returns the HTTP status
func (rx *resumableUpload) transferChunk(ctx context.Context, start int64, chunk io.ReadSeeker, chunkSize int64) (int, error) {
	_, _ = chunk.Seek(0, io.SeekStart)
	req, err := rx.makeRequest(ctx, start, chunk, chunkSize)
	if err != nil {
		return 0, err
	}
	res, err := rx.c.client.Do(req)
	if err != nil {
		return 599, err
	}
	defer googleapi.CloseBody(res)
	if res.StatusCode == statusResumeIncomplete {
		return res.StatusCode, nil
	}
	err = googleapi.CheckResponse(res)
	if err != nil {
		return res.StatusCode, err
	}

	// The final chunk gets 200 or 201 with the file metadata
	if err = json.NewDecoder(res.Body).Decode(&rx.ret); err != nil {
		return 598, errors.Wrap(err, "couldn't decode upload response")
	}
	return res.StatusCode, nil
}

// Upload sends the chunks from Media in order. A failed chunk fails
// the upload.
func (rx *resumableUpload) Upload(ctx context.Context) (*drive.File, error) {
	chunkSize := int64(rx.c.opt.ChunkSize)
	start := int64(0)
	var StatusCode int
	var err error
	buf := make([]byte, int(chunkSize))
	for start < rx.ContentLength {
		reqSize := rx.ContentLength - start
		if reqSize >= chunkSize {
			reqSize = chunkSize
		}
		chunk := readers.NewRepeatableLimitReaderBuffer(rx.Media, buf, reqSize)

		err = rx.c.pacer.Call(ctx, func() (bool, error) {
			fs.Debugf(rx.remote, "Sending chunk %d length %d", start, reqSize)
			StatusCode, err = rx.transferChunk(ctx, start, chunk, reqSize)
			return shouldBackOff(err), err
		})
		if err != nil {
			return nil, errors.Wrapf(err, "chunk at offset %d failed", start)
		}

		start += reqSize
		if rx.progress != nil {
			rx.progress(start, rx.ContentLength)
		}
	}
	if rx.ret == nil {
		return nil, errors.Errorf("incomplete upload - last status %d", StatusCode)
	}
	return rx.ret, nil
}
