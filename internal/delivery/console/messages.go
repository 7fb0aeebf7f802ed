package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"studentevents/internal/domain"
)

// formError carries the messages of a failed Validate call.
type formError []string

func (e formError) Error() string { return strings.Join(e, "; ") }

var userMessages = []struct {
	err error
	msg string
}{
	{domain.ErrForbidden, "You are not allowed to do that."},
	{domain.ErrUnknownUser, "Unknown user."},
	{domain.ErrUserNotFound, "No account with that id."},
	{domain.ErrUnknownEvent, "No event with that id."},
	{domain.ErrEventClosed, "This event is closed."},
	{domain.ErrEventFull, "This event is full."},
	{domain.ErrDuplicateRegistration, "You are already registered for this event."},
	{domain.ErrInvalidPaymentMode, "Unknown payment mode."},
	{domain.ErrInvalidBus, "That bus does not serve this event in this direction."},
	{domain.ErrUnknownReservation, "No registration with that code."},
	{domain.ErrCodeSpaceExhausted, "Could not allocate a reservation code, please try again."},
	{domain.ErrDuplicateEmail, "An account already uses this email."},
	{domain.ErrInvalidCredentials, "Wrong email or password."},
	{domain.ErrNotFound, "Not found."},
	{domain.ErrStoreUnavailable, "The database is unreachable, please try again later."},
}

func isUserError(err error) bool {
	var fe formError
	if errors.As(err, &fe) || errors.Is(err, domain.ErrInvalidInput) {
		return true
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) && m.err != domain.ErrStoreUnavailable {
			return true
		}
	}
	return false
}

// message turns an error into the single line shown to the user.
func message(err error) string {
	var fe formError
	if errors.As(err, &fe) {
		return "Invalid input: " + fe.Error()
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return "Invalid input: " + strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong, see the logs."
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	titleColor   = color.New(color.FgCyan, color.Bold)
)

func printError(w io.Writer, err error) {
	errorColor.Fprintln(w, "Error: "+message(err))
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintln(w, fmt.Sprintf(format, args...))
}
