package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/client"
	"github.com/dmitrijs2005/elibrary/internal/client/config"
)

type App struct {
	config *config.Config
	client client.Client
	user   *client.User
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, client.NewSessionStore(c.SessionFile))
	if err != nil {
		return nil, err
	}

	return &App{config: c, client: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run restores a saved session, if any, and starts the REPL.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to the E-Library CLI (type 'help' for commands)")

	if err := a.client.Ping(ctx); err != nil {
		printlnFn("Warning:", describeErr(err))
	}

	if a.client.HasSession() {
		if u, err := a.client.Me(ctx); err == nil {
			a.user = u
			printlnFn("Restored session for", u.Email)
		}
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	if a.user == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", a.user.Email, a.user.Role)
}

// describeErr turns a client error into the text shown to the user.
func describeErr(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	default:
		return strings.TrimSpace(err.Error())
	}
}
