package oauthutil

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	// TitleBarRedirectURL is the OAuth2 redirect URL for flows where
	// the user pastes the code back by hand
	TitleBarRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

	// bindAddress is where the local callback server listens
	bindAddress = "127.0.0.1:53682"
)

// AuthCodeFunc sends the user to the consent page for conf and
// returns the authorization code. It may change conf.RedirectURL,
// the changed conf is used for the exchange.
type AuthCodeFunc func(ctx context.Context, conf *oauth2.Config) (code string, err error)

// newState makes the anti forgery state parameter
func newState() string {
	return uuid.NewString()
}

// authResult is what the callback server got
type authResult struct {
	code string
	err  error
}

// LocalServerAuth returns an AuthCodeFunc which runs a web server on
// addr to receive the redirect. openURL is called with the consent
// URL; if nil the URL is logged for the user to open.
func LocalServerAuth(addr string, openURL func(authURL string)) AuthCodeFunc {
	return func(ctx context.Context, conf *oauth2.Config) (string, error) {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return "", errors.Wrap(err, "failed to start auth webserver")
		}
		conf.RedirectURL = "http://" + listener.Addr().String() + "/"
		state := newState()
		result := make(chan authResult, 1)
		server := &http.Server{
			Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				handleAuth(w, req, state, result)
			}),
		}
		go func() {
			_ = server.Serve(listener)
		}()
		defer func() {
			_ = server.Close()
		}()

		authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
		if openURL != nil {
			openURL(authURL)
		} else {
			fs.Logf(nil, "Go to the following link in your browser and authorize CoDriver: %s", authURL)
		}
		fs.Logf(nil, "Waiting for code...")
		select {
		case res := <-result:
			if res.err != nil {
				return "", res.err
			}
			fs.Logf(nil, "Got code")
			return res.code, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// handleAuth receives the redirect from the consent page
func handleAuth(w http.ResponseWriter, req *http.Request, state string, result chan<- authResult) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	q := req.URL.Query()
	send := func(res authResult) {
		select {
		case result <- res:
		default:
		}
	}
	if q.Get("state") != state {
		http.Error(w, "Auth state doesn't match", http.StatusBadRequest)
		send(authResult{err: errors.New("auth state doesn't match")})
		return
	}
	if e := q.Get("error"); e != "" {
		http.Error(w, "Authorization failed: "+html.EscapeString(e), http.StatusBadRequest)
		send(authResult{err: errors.Errorf("authorization failed: %s", e)})
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "No code returned", http.StatusBadRequest)
		send(authResult{err: errors.New("no code returned")})
		return
	}
	_, _ = io.WriteString(w, "<html><body><h1>Success!</h1><p>All done. Please go back to CoDriver.</p></body></html>")
	send(authResult{code: code})
}

// TerminalAuth returns an AuthCodeFunc which prints the consent URL
// to out and reads the pasted code from in. If in or out are nil
// stdin and stderr are used.
func TerminalAuth(in io.Reader, out io.Writer) AuthCodeFunc {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return func(ctx context.Context, conf *oauth2.Config) (string, error) {
		conf.RedirectURL = TitleBarRedirectURL
		authURL := conf.AuthCodeURL(newState(), oauth2.AccessTypeOffline)
		fmt.Fprintf(out, "Go to the following link in your browser:\n\n%s\n\nand paste the code here: ", authURL)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", errors.Wrap(err, "couldn't read code")
		}
		code := strings.TrimSpace(line)
		if code == "" {
			return "", errors.New("no code entered")
		}
		return code, nil
	}
}
