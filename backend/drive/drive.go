// Package drive presents Google Drive as a path addressed file
// system.
//
// Paths look like gdrive:/folder/file. Drive itself only knows IDs,
// so every path an operation takes must already be in the path cache:
// a path gets there by being listed, found by a search or created.
package drive

import (
	"context"
	"path/filepath"
	"time"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/fs/config"
	"github.com/TheHighestBit/CoDriver/fs/config/configmap"
	"github.com/TheHighestBit/CoDriver/fs/config/configstruct"
	"github.com/TheHighestBit/CoDriver/lib/oauthutil"
	"github.com/TheHighestBit/CoDriver/lib/pathcache"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
)

// Constants
const (
	rootID              = "root"
	minChunkSize        = 256 * fs.Kibi
	defaultChunkSize    = 8 * fs.Mebi
	defaultUploadCutoff = 5 * fs.Mebi
	defaultMaxDepth     = 256
)

// Options defines the configuration for this backend
type Options struct {
	ClientSecretFile string        `config:"client_secret_file"`
	TokenFile        string        `config:"token_file"`
	UploadCutoff     fs.SizeSuffix `config:"upload_cutoff"`
	ChunkSize        fs.SizeSuffix `config:"chunk_size"`
	ListChunk        int64         `config:"list_chunk"`
	PacerMinSleep    fs.Duration   `config:"pacer_min_sleep"`
	PacerBurst       int           `config:"pacer_burst"`
	MaxDepth         int           `config:"max_depth"`
	CacheTTL         fs.Duration   `config:"cache_ttl"`
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		ClientSecretFile: filepath.Join(config.Dir(), "client_secret.json"),
		TokenFile:        filepath.Join(config.Dir(), "creds.json"),
		UploadCutoff:     defaultUploadCutoff,
		ChunkSize:        defaultChunkSize,
		ListChunk:        1000,
		PacerMinSleep:    fs.Duration(100 * time.Millisecond),
		PacerBurst:       100,
		MaxDepth:         defaultMaxDepth,
	}
}

// State is whether the Fs has a live session
type State int

// States
const (
	Unauthenticated State = iota
	Authenticated
)

// String turns a State into a string
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// session is what exists only while authenticated
type session struct {
	client Client
	token  *oauth2.Token
}

// Fs represents a Google Drive account
type Fs struct {
	name     string           // name of this remote
	opt      Options          // parsed options
	creds    oauthutil.Store  // where credentials come from
	authCode oauthutil.AuthCodeFunc
	connect  Connector        // makes the Drive client
	local    billy.Filesystem // the local side of transfers
	progress fs.ProgressFn    // upload progress
	cache    *pathcache.Cache // path to object cache
	sess     *session         // nil when unauthenticated
}

var _ fs.Provider = (*Fs)(nil)

// Option changes how NewFs builds the Fs
type Option func(f *Fs)

// WithCredentials sets the credential store
func WithCredentials(s oauthutil.Store) Option {
	return func(f *Fs) { f.creds = s }
}

// WithAuthCode sets how the default credential store asks the user
// for consent. It has no effect with WithCredentials.
func WithAuthCode(fn oauthutil.AuthCodeFunc) Option {
	return func(f *Fs) { f.authCode = fn }
}

// WithConnector sets how the Drive client is made
func WithConnector(c Connector) Option {
	return func(f *Fs) { f.connect = c }
}

// WithLocal sets the local file system transfers read from and
// write to
func WithLocal(local billy.Filesystem) Option {
	return func(f *Fs) { f.local = local }
}

// WithProgress sets the upload progress callback
func WithProgress(fn fs.ProgressFn) Option {
	return func(f *Fs) { f.progress = fn }
}

// checkOptions validates the parsed options
func checkOptions(opt *Options) error {
	if opt.ChunkSize < minChunkSize {
		return errors.Errorf("chunk_size %v is less than %v", opt.ChunkSize, minChunkSize)
	}
	if opt.ChunkSize%minChunkSize != 0 {
		return errors.Errorf("chunk_size %v must be a multiple of %v", opt.ChunkSize, minChunkSize)
	}
	if opt.UploadCutoff < 0 {
		return errors.New("upload_cutoff can't be off")
	}
	if opt.MaxDepth < 1 {
		return errors.Errorf("max_depth must be at least 1, got %d", opt.MaxDepth)
	}
	if opt.ListChunk < 0 || opt.ListChunk > 1000 {
		return errors.Errorf("list_chunk must be between 0 and 1000, got %d", opt.ListChunk)
	}
	return nil
}

// rootObject is what the path cache is seeded with
func rootObject() *fs.Object {
	return &fs.Object{
		ID:    rootID,
		Name:  fs.RootPrefix,
		IsDir: true,
	}
}

// NewFs constructs an Fs from the config in m. It doesn't touch the
// network: authentication happens on first use.
func NewFs(m configmap.Getter, opts ...Option) (*Fs, error) {
	opt := DefaultOptions()
	if err := configstruct.Set(m, &opt); err != nil {
		return nil, err
	}
	if err := checkOptions(&opt); err != nil {
		return nil, errors.Wrap(err, "drive: bad config")
	}
	f := &Fs{
		name:     "gdrive",
		opt:      opt,
		progress: logProgress,
	}
	for _, o := range opts {
		o(f)
	}
	if f.local == nil {
		f.local = osfs.New("/")
	}
	if f.creds == nil {
		f.creds = oauthutil.NewFileStore(f.opt.ClientSecretFile, f.opt.TokenFile, f.authCode, drive.DriveScope)
	}
	if f.connect == nil {
		f.connect = NewConnector(&f.opt)
	}
	f.cache = pathcache.New(fs.RootPrefix, rootObject(), time.Duration(f.opt.CacheTTL))
	return f, nil
}

// logProgress is the default upload progress callback
func logProgress(remote string, transferred, total int64) {
	fs.Infof(remote, "Uploaded %v of %v", fs.SizeSuffix(transferred).ByteUnit(), fs.SizeSuffix(total).ByteUnit())
}

// Name of the remote
func (f *Fs) Name() string {
	return f.name
}

// String converts this Fs to a string
func (f *Fs) String() string {
	return "Google drive " + fs.RootPrefix
}

// Options returns a copy of the parsed options
func (f *Fs) Options() Options {
	return f.opt
}

// State returns whether there is a live session
func (f *Fs) State() State {
	if f.sess == nil {
		return Unauthenticated
	}
	return Authenticated
}

// Authenticate loads, refreshes or obtains credentials and opens a
// new session. The path cache is reset to just the root.
func (f *Fs) Authenticate(ctx context.Context) error {
	token, err := f.creds.LoadOrObtain(ctx)
	if err != nil {
		return fs.AuthError("authenticate", err)
	}
	if !token.Valid() {
		token, err = f.creds.Refresh(ctx, token)
		if err != nil {
			return fs.AuthError("authenticate", err)
		}
	}
	ts, err := f.creds.TokenSource(ctx, token)
	if err != nil {
		return fs.AuthError("authenticate", err)
	}
	client, err := f.connect(ctx, ts)
	if err != nil {
		return fs.AuthError("authenticate", err)
	}
	f.sess = &session{client: client, token: token}
	f.cache.ResetRoot()
	fs.Debugf(f, "Authenticated")
	return nil
}

// ensureAuthenticated returns the session client, authenticating
// first if there is no session
func (f *Fs) ensureAuthenticated(ctx context.Context) (Client, error) {
	if f.sess == nil {
		if err := f.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	return f.sess.client, nil
}

// SignOut removes the stored credentials and drops the session. The
// next operation will authenticate from scratch.
func (f *Fs) SignOut(ctx context.Context) error {
	if err := f.creds.Remove(); err != nil {
		return fs.AuthError("sign out", err)
	}
	f.sess = nil
	f.cache.ResetRoot()
	fs.Debugf(f, "Signed out")
	return nil
}

// Invalidate forgets the cached object at remote
func (f *Fs) Invalidate(remote string) {
	f.cache.Invalidate(remote)
}

// InvalidateSubtree forgets remote and everything cached below it
func (f *Fs) InvalidateSubtree(remote string) {
	f.cache.InvalidateSubtree(remote)
}

// objectFromFile converts a Drive item to an fs.Object
func objectFromFile(item *drive.File) *fs.Object {
	o := &fs.Object{
		ID:         item.Id,
		Name:       cleanName(item.Name),
		RemoteName: item.Name,
		MimeType:   item.MimeType,
		IsDir:      item.MimeType == driveFolderType,
		Extension:  fs.NormalizeExtension(item.FullFileExtension),
	}
	if !o.IsDir {
		o.Size = item.Size
	}
	if item.ModifiedTime != "" {
		if when, err := time.Parse(timeFormatIn, item.ModifiedTime); err == nil {
			o.ModTime = when
		} else {
			fs.Debugf(o, "Couldn't parse modified time %q: %v", item.ModifiedTime, err)
		}
	}
	if len(item.Parents) > 0 {
		o.Parents = append([]string(nil), item.Parents...)
	}
	return o
}
