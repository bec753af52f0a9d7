// Package mockdrive is an in memory stand in for the Drive API and
// the credential store, for tests.
package mockdrive

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Method names for Calls and Fail
const (
	MethodList      = "list"
	MethodSearch    = "search"
	MethodDownload  = "download"
	MethodMkdir     = "mkdir"
	MethodMultipart = "multipart"
	MethodResumable = "resumable"
)

// FolderMimeType is the MIME type of folders
const FolderMimeType = "application/vnd.google-apps.folder"

// RootID is the ID of the root folder
const RootID = "root"

// progressStep is how often UploadResumable reports progress
const progressStep = 256 * 1024

// Drive is an in memory Drive. It is safe for concurrent use.
type Drive struct {
	mu       sync.Mutex
	files    map[string]*drive.File
	content  map[string][]byte
	calls    map[string]int
	fields   []googleapi.Field
	failures map[string]error
	now      func() time.Time
}

// New returns an empty Drive with just the root folder
func New() *Drive {
	return &Drive{
		files:    map[string]*drive.File{RootID: {Id: RootID, Name: "My Drive", MimeType: FolderMimeType}},
		content:  map[string][]byte{},
		calls:    map[string]int{},
		failures: map[string]error{},
		now:      time.Now,
	}
}

// copyFile returns a copy of f safe to hand out
func copyFile(f *drive.File) *drive.File {
	c := *f
	c.Parents = append([]string(nil), f.Parents...)
	return &c
}

// add stores a new item, returning its copy
func (d *Drive) add(parentID, name, mimeType string, content []byte) *drive.File {
	f := &drive.File{
		Id:           uuid.NewString(),
		Name:         name,
		MimeType:     mimeType,
		ModifiedTime: d.now().UTC().Format(time.RFC3339),
		Parents:      []string{parentID},
	}
	if mimeType != FolderMimeType {
		f.Size = int64(len(content))
		if ext := path.Ext(name); ext != "" {
			f.FullFileExtension = strings.TrimPrefix(ext, ".")
		}
		d.content[f.Id] = append([]byte(nil), content...)
	}
	d.files[f.Id] = f
	return copyFile(f)
}

// AddFolder makes a folder and returns its ID
func (d *Drive) AddFolder(parentID, name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.add(parentID, name, FolderMimeType, nil).Id
}

// AddFile makes a file and returns its ID
func (d *Drive) AddFile(parentID, name string, content []byte) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.add(parentID, name, "application/octet-stream", content).Id
}

// File returns the item with id
func (d *Drive) File(id string) (*drive.File, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.files[id]
	if !ok {
		return nil, false
	}
	return copyFile(f), true
}

// Content returns the content of the file id
func (d *Drive) Content(id string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.content[id]
	return append([]byte(nil), b...), ok
}

// children returns the items in parentID sorted by name
func (d *Drive) children(parentID string) []*drive.File {
	var out []*drive.File
	for _, f := range d.files {
		for _, p := range f.Parents {
			if p == parentID {
				out = append(out, copyFile(f))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// Children returns the items in parentID sorted by name
func (d *Drive) Children(parentID string) []*drive.File {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.children(parentID)
}

// Find returns the first item called name in parentID
func (d *Drive) Find(parentID, name string) (*drive.File, bool) {
	for _, f := range d.Children(parentID) {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Calls returns how many times method was called
func (d *Drive) Calls(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[method]
}

// TotalCalls returns the number of calls of any method
func (d *Drive) TotalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, n := range d.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes the call counters
func (d *Drive) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = map[string]int{}
	d.fields = nil
}

// Fields returns the field selections ListChildren was called with
func (d *Drive) Fields() []googleapi.Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]googleapi.Field(nil), d.fields...)
}

// Fail makes every later call of method return err. A nil err clears
// the failure.
func (d *Drive) Fail(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, method)
		return
	}
	d.failures[method] = err
}

// call counts a call of method and returns any injected failure
//
// Call with the lock held
func (d *Drive) call(method string) error {
	d.calls[method]++
	return d.failures[method]
}

// ListChildren returns the items in the folder parentID
func (d *Drive) ListChildren(ctx context.Context, parentID string, fields googleapi.Field) ([]*drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = append(d.fields, fields)
	if err := d.call(MethodList); err != nil {
		return nil, err
	}
	return d.children(parentID), nil
}

// Search returns the items whose name contains fragment, ignoring case
func (d *Drive) Search(ctx context.Context, fragment string) ([]*drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(MethodSearch); err != nil {
		return nil, err
	}
	var out []*drive.File
	for id, f := range d.files {
		if id == RootID {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name), strings.ToLower(fragment)) {
			out = append(out, copyFile(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Download opens the content of the file id
func (d *Drive) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(MethodDownload); err != nil {
		return nil, err
	}
	b, ok := d.content[id]
	if !ok {
		return nil, &googleapi.Error{Code: 404, Message: "File not found: " + id}
	}
	return ioutil.NopCloser(bytes.NewReader(append([]byte(nil), b...))), nil
}

// CreateFolder makes a folder called name in parentID
func (d *Drive) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call(MethodMkdir); err != nil {
		return nil, err
	}
	if err := d.checkParent(parentID); err != nil {
		return nil, err
	}
	return d.add(parentID, name, FolderMimeType, nil), nil
}

// checkParent makes sure parentID is a folder
//
// Call with the lock held
func (d *Drive) checkParent(parentID string) error {
	p, ok := d.files[parentID]
	if !ok || p.MimeType != FolderMimeType {
		return &googleapi.Error{Code: 404, Message: "File not found: " + parentID}
	}
	return nil
}

// upload stores a new file from info and in
func (d *Drive) upload(method string, info *drive.File, in io.Reader, progress func(transferred, total int64), size int64) (*drive.File, error) {
	d.mu.Lock()
	if err := d.call(method); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	if len(info.Parents) != 1 {
		d.mu.Unlock()
		return nil, errors.New("mockdrive: uploads need exactly one parent")
	}
	if err := d.checkParent(info.Parents[0]); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.mu.Unlock()

	var buf bytes.Buffer
	chunk := make([]byte, progressStep)
	for {
		n, err := io.ReadFull(in, chunk)
		buf.Write(chunk[:n])
		if n > 0 && progress != nil {
			progress(int64(buf.Len()), size)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if size >= 0 && int64(buf.Len()) != size {
		return nil, errors.Errorf("mockdrive: got %d bytes, expected %d", buf.Len(), size)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	mimeType := info.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	f := d.add(info.Parents[0], info.Name, mimeType, buf.Bytes())
	if info.ModifiedTime != "" {
		d.files[f.Id].ModifiedTime = info.ModifiedTime
		f.ModifiedTime = info.ModifiedTime
	}
	return f, nil
}

// UploadMultipart stores a new file
func (d *Drive) UploadMultipart(ctx context.Context, info *drive.File, in io.Reader, mimeType string) (*drive.File, error) {
	return d.upload(MethodMultipart, info, in, nil, -1)
}

// UploadResumable stores a new file, calling progress every 256 KiB
func (d *Drive) UploadResumable(ctx context.Context, info *drive.File, in io.Reader, size int64, mimeType string, progress func(transferred, total int64)) (*drive.File, error) {
	return d.upload(MethodResumable, info, in, progress, size)
}

// Credentials is an in memory credential store
type Credentials struct {
	mu       sync.Mutex
	Token    *oauth2.Token // returned by LoadOrObtain, nil means none stored
	Fresh    *oauth2.Token // returned by Refresh and used when Token is nil
	Err      error         // returned by LoadOrObtain if set
	Loads    int
	Refreshes int
	Removes  int
}

// NewCredentials returns a store holding a valid token
func NewCredentials() *Credentials {
	return &Credentials{
		Token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)},
		Fresh: &oauth2.Token{AccessToken: "fresh", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)},
	}
}

// LoadOrObtain returns Token, or Fresh as if newly authorized
func (c *Credentials) LoadOrObtain(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Loads++
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Token == nil {
		c.Token = c.Fresh
	}
	return c.Token, nil
}

// Refresh returns Fresh
func (c *Credentials) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Refreshes++
	c.Token = c.Fresh
	return c.Fresh, nil
}

// TokenSource returns a static source for token
func (c *Credentials) TokenSource(ctx context.Context, token *oauth2.Token) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(token), nil
}

// Remove forgets the stored token
func (c *Credentials) Remove() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Removes++
	c.Token = nil
	return nil
}
