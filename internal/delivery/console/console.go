package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"studentevents/internal/domain"
)

// Sessions issues and verifies the token held by a signed-in console session.
type Sessions interface {
	domain.TokenIssuer
	domain.TokenVerifier
}

// Deps are the services the console drives.
type Deps struct {
	Identity      domain.IdentityService
	Catalog       domain.CatalogService
	Registrations domain.RegistrationService
	Sessions      Sessions
	Logger        *slog.Logger
	SessionTTL    time.Duration
	// AdminSignUp lets the sign-up form create administrator accounts.
	AdminSignUp bool
}

// Console is the interactive terminal front end. It reads one answer per line.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	deps  Deps
	token string
}

// errQuit ends Run normally.
var errQuit = errors.New("quit")

// New returns a console reading from in and writing prompts and results to out.
func New(in io.Reader, out io.Writer, deps Deps) *Console {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 8 * time.Hour
	}
	return &Console{in: bufio.NewScanner(in), out: out, deps: deps}
}

type menuItem struct {
	key    string
	label  string
	name   string
	action func(ctx context.Context, user *domain.User) error
}

// Run shows menus until the user quits, input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	titleColor.Fprintln(c.out, "Student association events")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if c.token == "" {
			err = c.menu(ctx, "Main menu", nil, c.topMenu())
		} else {
			err = c.signedInMenu(ctx)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out, "Bye.")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// currentUser verifies the session token and loads the account it names.
func (c *Console) currentUser(ctx context.Context) (*domain.User, error) {
	userID, err := c.deps.Sessions.Verify(c.token)
	if err != nil {
		return nil, err
	}
	return c.deps.Identity.GetByID(ctx, userID)
}

func (c *Console) signedInMenu(ctx context.Context) error {
	user, err := c.currentUser(ctx)
	if err != nil {
		c.token = ""
		if errors.Is(err, domain.ErrStoreUnavailable) {
			printError(c.out, err)
		} else {
			errorColor.Fprintln(c.out, "Session expired, please sign in again.")
		}
		c.deps.Logger.Info("session dropped", "error", err)
		return nil
	}
	if user.IsAdmin {
		return c.menu(ctx, "Admin menu ("+user.Pseudo+")", user, c.adminMenu())
	}
	return c.menu(ctx, "Participant menu ("+user.Pseudo+")", user, c.participantMenu())
}

// menu prints items, reads a choice and runs the matching action.
// Only end of input and quit are returned; other errors are printed.
func (c *Console) menu(ctx context.Context, title string, user *domain.User, items []menuItem) error {
	fmt.Fprintln(c.out)
	titleColor.Fprintln(c.out, "== "+title+" ==")
	for _, it := range items {
		fmt.Fprintf(c.out, "%s) %s\n", it.key, it.label)
	}
	choice, err := c.ask("Choice")
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.key != choice {
			continue
		}
		action := withLogging(c.deps.Logger, it.name, func(ctx context.Context) error {
			return it.action(ctx, user)
		})
		err := action(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, errQuit):
			return err
		default:
			printError(c.out, err)
			return nil
		}
	}
	printError(c.out, formError{"unknown choice " + fmt.Sprintf("%q", choice)})
	return nil
}

// ask prints label and returns the next trimmed line.
func (c *Console) ask(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

type prompt struct {
	label string
	dest  *string
}

// askAll fills the prompts in order, stopping at the first read error.
func (c *Console) askAll(prompts ...prompt) error {
	for _, p := range prompts {
		v, err := c.ask(p.label)
		if err != nil {
			return err
		}
		*p.dest = v
	}
	return nil
}
