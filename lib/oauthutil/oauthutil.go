// Package oauthutil loads, obtains, refreshes and stores the OAuth2
// credentials CoDriver authenticates with.
package oauthutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/TheHighestBit/CoDriver/fs"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Store is where a session gets its credentials from
type Store interface {
	// LoadOrObtain returns the stored token, running the
	// interactive flow to get one if none is stored
	LoadOrObtain(ctx context.Context) (*oauth2.Token, error)

	// Refresh exchanges an expired token for a fresh one
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)

	// TokenSource returns a source which keeps token fresh
	TokenSource(ctx context.Context, token *oauth2.Token) (oauth2.TokenSource, error)

	// Remove forgets the stored token
	Remove() error
}

// FileStore keeps the token as JSON in TokenFile and reads the OAuth2
// client from the Google client secret file ConfigFile.
type FileStore struct {
	ConfigFile string
	TokenFile  string
	Scopes     []string
	AuthCode   AuthCodeFunc

	mu     sync.Mutex
	config *oauth2.Config
}

var _ Store = (*FileStore)(nil)

// NewFileStore makes a FileStore. If authCode is nil a browser based
// flow with a local callback server is used.
func NewFileStore(configFile, tokenFile string, authCode AuthCodeFunc, scopes ...string) *FileStore {
	if authCode == nil {
		authCode = LocalServerAuth(bindAddress, nil)
	}
	return &FileStore{
		ConfigFile: configFile,
		TokenFile:  tokenFile,
		Scopes:     scopes,
		AuthCode:   authCode,
	}
}

// String describes the store for logging
func (s *FileStore) String() string {
	return s.TokenFile
}

// oauthConfig reads the client secret file once
func (s *FileStore) oauthConfig() (*oauth2.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config != nil {
		return s.config, nil
	}
	path, err := homedir.Expand(s.ConfigFile)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read client secret file")
	}
	conf, err := google.ConfigFromJSON(data, s.Scopes...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't parse client secret file %q", path)
	}
	s.config = conf
	return conf, nil
}

func (s *FileStore) tokenPath() (string, error) {
	return homedir.Expand(s.TokenFile)
}

// load reads the stored token
func (s *FileStore) load() (*oauth2.Token, error) {
	path, err := s.tokenPath()
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token := new(oauth2.Token)
	if err := json.Unmarshal(data, token); err != nil {
		return nil, errors.Wrapf(err, "couldn't parse token file %q", path)
	}
	return token, nil
}

// save writes token atomically with owner only permissions
func (s *FileStore) save(token *oauth2.Token) error {
	path, err := s.tokenPath()
	if err != nil {
		return err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "couldn't make token directory")
	}
	tmp := path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(err, "couldn't write token file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "couldn't replace token file")
	}
	fs.Debugf(s, "Saved token")
	return nil
}

// LoadOrObtain returns the stored token, refreshed if it has expired.
// If there is no stored token the user is sent through AuthCode.
func (s *FileStore) LoadOrObtain(ctx context.Context) (*oauth2.Token, error) {
	token, err := s.load()
	switch {
	case err == nil:
		if token.Valid() {
			return token, nil
		}
		fs.Debugf(s, "Stored token has expired")
		return s.Refresh(ctx, token)
	case os.IsNotExist(errors.Cause(err)):
		fs.Debugf(s, "No stored token - starting authorization")
		return s.obtain(ctx)
	default:
		return nil, err
	}
}

// obtain runs the interactive flow and stores the result
func (s *FileStore) obtain(ctx context.Context) (*oauth2.Token, error) {
	conf, err := s.oauthConfig()
	if err != nil {
		return nil, err
	}
	// AuthCode may change the redirect URL
	confCopy := *conf
	code, err := s.AuthCode(ctx, &confCopy)
	if err != nil {
		return nil, errors.Wrap(err, "authorization failed")
	}
	token, err := confCopy.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(maybeWrapOAuthError(err), "failed to get token")
	}
	if err := s.save(token); err != nil {
		return nil, err
	}
	fs.Infof(s, "Authorized")
	return token, nil
}

// Refresh uses the refresh token to get a new access token and
// stores it.
func (s *FileStore) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token.RefreshToken == "" {
		return nil, errors.New("token expired and there's no refresh token - sign out and authorize again")
	}
	conf, err := s.oauthConfig()
	if err != nil {
		return nil, err
	}
	expired := *token
	expired.AccessToken = ""
	newToken, err := conf.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, errors.Wrap(maybeWrapOAuthError(err), "couldn't refresh token")
	}
	if err := s.save(newToken); err != nil {
		return nil, err
	}
	return newToken, nil
}

// TokenSource returns a TokenSource which stores refreshed tokens
func (s *FileStore) TokenSource(ctx context.Context, token *oauth2.Token) (oauth2.TokenSource, error) {
	conf, err := s.oauthConfig()
	if err != nil {
		return nil, err
	}
	return &TokenSource{
		store:       s,
		token:       token,
		tokenSource: conf.TokenSource(ctx, token),
	}, nil
}

// Remove deletes the token file. It is not an error if there is none.
func (s *FileStore) Remove() error {
	path, err := s.tokenPath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "couldn't remove token file")
	}
	return nil
}

// TokenSource saves tokens back to the store whenever they change
type TokenSource struct {
	mu          sync.Mutex
	store       *FileStore
	token       *oauth2.Token
	tokenSource oauth2.TokenSource
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

// Token returns a valid token, saving it if it was refreshed.
//
// Token is safe for concurrent use.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	token, err := ts.tokenSource.Token()
	if err != nil {
		return nil, errors.Wrap(maybeWrapOAuthError(err), "couldn't fetch token")
	}
	if token.AccessToken != ts.token.AccessToken || token.RefreshToken != ts.token.RefreshToken || !token.Expiry.Equal(ts.token.Expiry) {
		ts.token = token
		if err := ts.store.save(token); err != nil {
			return nil, errors.Wrap(err, "couldn't store token")
		}
	}
	return token, nil
}

type retrieveErrResponse struct {
	Error string `json:"error"`
}

// maybeWrapOAuthError turns fatal OAuth errors into something the
// user can act on. Other errors are returned unchanged.
func maybeWrapOAuthError(err error) error {
	rErr, ok := err.(*oauth2.RetrieveError)
	if !ok || rErr.Response == nil {
		return err
	}
	if rErr.Response.StatusCode != 400 && rErr.Response.StatusCode != 401 {
		return err
	}
	var resp retrieveErrResponse
	if jsonErr := json.Unmarshal(rErr.Body, &resp); jsonErr != nil || resp.Error == "" {
		return errors.Errorf("(can't decode error info) - sign out and authorize again: %v", err)
	}
	var suggestion string
	switch resp.Error {
	case "invalid_client", "unauthorized_client", "unsupported_grant_type", "invalid_scope":
		suggestion = "check the client secret file is set up for a desktop app"
	default:
		suggestion = "maybe token expired? - sign out and authorize again"
	}
	return fmt.Errorf("%s: %s", resp.Error, suggestion)
}
