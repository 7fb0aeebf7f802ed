package console

import (
	"context"
	"fmt"
	"strings"

	"studentevents/internal/domain"
)

func (c *Console) topMenu() []menuItem {
	return []menuItem{
		{key: "1", label: "Create an account", name: "sign_up", action: c.signUp},
		{key: "2", label: "Sign in", name: "sign_in", action: c.signIn},
		{key: "0", label: "Quit", name: "quit", action: func(context.Context, *domain.User) error { return errQuit }},
	}
}

func (c *Console) participantMenu() []menuItem {
	return []menuItem{
		{key: "1", label: "List events", name: "list_events", action: c.listEvents},
		{key: "2", label: "Enroll in an event", name: "enroll", action: c.enroll},
		{key: "3", label: "Cancel a registration", name: "cancel", action: c.cancel},
		{key: "4", label: "My registrations", name: "my_registrations", action: c.myRegistrations},
		{key: "0", label: "Sign out", name: "sign_out", action: c.signOut},
	}
}

func (c *Console) adminMenu() []menuItem {
	return []menuItem{
		{key: "1", label: "List events", name: "list_events", action: c.listEvents},
		{key: "2", label: "Create an event", name: "create_event", action: c.createEvent},
		{key: "3", label: "Edit an event", name: "edit_event", action: c.editEvent},
		{key: "4", label: "Add a bus", name: "create_bus", action: c.createBus},
		{key: "5", label: "Delete an event", name: "delete_event", action: c.deleteEvent},
		{key: "6", label: "List enrollees of an event", name: "list_enrollees", action: c.listEnrollees},
		{key: "7", label: "Cancel a registration", name: "cancel", action: c.cancel},
		{key: "8", label: "Delete an account", name: "delete_account", action: c.deleteAccount},
		{key: "0", label: "Sign out", name: "sign_out", action: c.signOut},
	}
}

func (c *Console) signUp(ctx context.Context, _ *domain.User) error {
	var f signUpForm
	if err := c.askAll(
		prompt{"Pseudo", &f.Pseudo},
		prompt{"First name", &f.FirstName},
		prompt{"Last name", &f.LastName},
		prompt{"Email", &f.Email},
		prompt{"Password (8+ characters)", &f.Password},
	); err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	isAdmin := false
	if c.deps.AdminSignUp {
		answer, err := c.ask("Administrator account? (y/n)")
		if err != nil {
			return err
		}
		isAdmin = yes(answer)
	}
	user, err := c.deps.Identity.Register(ctx, domain.RegisterInput{
		Pseudo:    f.Pseudo,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Password:  f.Password,
		IsAdmin:   isAdmin,
	})
	if err != nil {
		return err
	}
	printSuccess(c.out, "Account created for %s, you can now sign in.", user.Email)
	return nil
}

func (c *Console) signIn(ctx context.Context, _ *domain.User) error {
	var f signInForm
	if err := c.askAll(prompt{"Email", &f.Email}, prompt{"Password", &f.Password}); err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	user, err := c.deps.Identity.Authenticate(ctx, f.Email, f.Password)
	if err != nil {
		return err
	}
	token, err := c.deps.Sessions.Issue(user.ID, user.Email, user.IsAdmin, c.deps.SessionTTL)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}
	c.token = token
	printSuccess(c.out, "Welcome, %s.", user.Pseudo)
	return nil
}

func (c *Console) signOut(context.Context, *domain.User) error {
	c.token = ""
	printSuccess(c.out, "Signed out.")
	return nil
}

func (c *Console) listEvents(ctx context.Context, _ *domain.User) error {
	if err := c.deps.Catalog.RefreshStatuses(ctx); err != nil {
		c.deps.Logger.Warn("refresh event statuses", "error", err)
	}
	events, err := c.deps.Catalog.ListEvents(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(c.out, "No events yet.")
		return nil
	}
	for _, e := range events {
		count, err := c.deps.Registrations.CountForEvent(ctx, e.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "#%d %s | %s | %s | %s EUR | %d/%d | %s\n",
			e.ID, e.Title, e.Date.Format(dayLayout), e.Location, e.Fare(), count, e.CapacityMax, e.Status)
		buses, err := c.deps.Catalog.ListBuses(ctx, e.ID)
		if err != nil {
			return err
		}
		for _, b := range buses {
			fmt.Fprintf(c.out, "    bus %d %-6s %s from %s (%d seats)\n",
				b.ID, b.Direction, b.DepartureTime.Format(dateLayout), b.Stop, b.CapacityMax)
		}
	}
	return nil
}

func (c *Console) enroll(ctx context.Context, user *domain.User) error {
	var f enrollForm
	if err := c.askAll(prompt{"Event id", &f.EventID}); err != nil {
		return err
	}
	if eventID, err := parseID(f.EventID); err == nil {
		buses, err := c.deps.Catalog.ListBuses(ctx, eventID)
		if err != nil {
			return err
		}
		for _, b := range buses {
			fmt.Fprintf(c.out, "    bus %d %-6s %s from %s\n", b.ID, b.Direction, b.DepartureTime.Format(dateLayout), b.Stop)
		}
	}
	if err := c.askAll(
		prompt{"Drink (y/n)", &f.Drink},
		prompt{"Payment: 1 espece, 2 en ligne, empty for later", &f.Payment},
		prompt{"Outbound bus id (empty for none)", &f.Outbound},
		prompt{"Return bus id (empty for none)", &f.Return},
	); err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	in, _ := f.input(user.ID)
	reg, err := c.deps.Registrations.Enroll(ctx, in)
	if err != nil {
		return err
	}
	printSuccess(c.out, "Registered for %s. Your reservation code is %d.", reg.EventName, reg.Code)
	return nil
}

func (c *Console) cancel(ctx context.Context, user *domain.User) error {
	var f codeForm
	if err := c.askAll(prompt{"Reservation code", &f.Code}); err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	code, _ := f.code()
	if err := c.deps.Registrations.Cancel(ctx, code, user.ID); err != nil {
		return err
	}
	printSuccess(c.out, "Registration %d cancelled.", code)
	return nil
}

func (c *Console) myRegistrations(ctx context.Context, user *domain.User) error {
	regs, err := c.deps.Registrations.ListForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		fmt.Fprintln(c.out, "You have no registrations.")
		return nil
	}
	for _, r := range regs {
		fmt.Fprintf(c.out, "%d | %s | %s\n", r.Code, r.EventName, describe(r))
	}
	return nil
}

func (c *Console) createEvent(ctx context.Context, user *domain.User) error {
	var f eventForm
	if err := c.askAll(
		prompt{"Title", &f.Title},
		prompt{"Location", &f.Location},
		prompt{"Description", &f.Description},
		prompt{"Date (YYYY-MM-DD)", &f.Date},
		prompt{"Capacity", &f.Capacity},
		prompt{"Fare (e.g. 12.50, empty for free)", &f.Fare},
	); err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	event, _ := f.event()
	if err := c.deps.Catalog.CreateEvent(ctx, user, event); err != nil {
		return err
	}
	printSuccess(c.out, "Event #%d created (%s).", event.ID, event.Status)
	return nil
}

func (c *Console) editEvent(ctx context.Context, user *domain.User) error {
	raw, err := c.ask("Event id")
	if err != nil {
		return err
	}
	id, err := parseID(raw)
	if err != nil {
		return formError{"event id must be a number"}
	}
	current, err := c.deps.Catalog.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	f := eventForm{
		Title:       current.Title,
		Location:    current.Location,
		Description: current.Description,
		Date:        current.Date.Format(dayLayout),
		Capacity:    fmt.Sprint(current.CapacityMax),
		Fare:        current.Fare(),
	}
	fmt.Fprintln(c.out, "Leave a field empty to keep its value.")
	for _, p := range []prompt{
		{"Title [" + f.Title + "]", &f.Title},
		{"Location [" + f.Location + "]", &f.Location},
		{"Description", &f.Description},
		{"Date [" + f.Date + "]", &f.Date},
		{"Capacity [" + f.Capacity + "]", &f.Capacity},
		{"Fare [" + f.Fare + "]", &f.Fare},
	} {
		v, err := c.ask(p.label)
		if err != nil {
			return err
		}
		if v != "" {
			*p.dest = v
		}
	}
	if err := validate(f); err != nil {
		return err
	}
	event, _ := f.event()
	event.ID = id
	if err := c.deps.Catalog.UpdateEvent(ctx, user, event); err != nil {
		return err
	}
	printSuccess(c.out, "Event #%d updated (%s).", id, event.Status)
	return nil
}

func (c *Console) createBus(ctx context.Context, user *domain.User) error {
	var f busForm
	if err := c.askAll(
		prompt{"Event id", &f.EventID},
		prompt{"Direction: 1 aller, 2 retour", &f.Direction},
		prompt{"Stop", &f.Stop},
		prompt{"Departure (YYYY-MM-DD HH:MM)", &f.Departure},
		prompt{"Seats", &f.Capacity},
	); err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	bus, _ := f.bus()
	if err := c.deps.Catalog.CreateBus(ctx, user, bus); err != nil {
		return err
	}
	printSuccess(c.out, "Bus #%d added to event #%d.", bus.ID, bus.EventID)
	return nil
}

func (c *Console) deleteEvent(ctx context.Context, user *domain.User) error {
	id, err := c.askID("Event id")
	if err != nil {
		return err
	}
	answer, err := c.ask("This also deletes its buses and registrations. Confirm? (y/n)")
	if err != nil {
		return err
	}
	if !yes(answer) {
		fmt.Fprintln(c.out, "Nothing deleted.")
		return nil
	}
	if err := c.deps.Catalog.DeleteEvent(ctx, user, id); err != nil {
		return err
	}
	printSuccess(c.out, "Event #%d deleted.", id)
	return nil
}

func (c *Console) listEnrollees(ctx context.Context, _ *domain.User) error {
	id, err := c.askID("Event id")
	if err != nil {
		return err
	}
	event, err := c.deps.Catalog.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	regs, err := c.deps.Registrations.ListForEvent(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %d/%d registered\n", event.Title, len(regs), event.CapacityMax)
	for _, r := range regs {
		who := fmt.Sprintf("user %d", r.UserID)
		if u, err := c.deps.Identity.GetByID(ctx, r.UserID); err == nil {
			who = fmt.Sprintf("%s %s <%s>", u.FirstName, u.LastName, u.Email)
		}
		fmt.Fprintf(c.out, "%d | %s | %s\n", r.Code, who, describe(r))
	}
	return nil
}

func (c *Console) deleteAccount(ctx context.Context, user *domain.User) error {
	id, err := c.askID("User id")
	if err != nil {
		return err
	}
	if err := c.deps.Identity.Delete(ctx, id, user); err != nil {
		return err
	}
	printSuccess(c.out, "Account #%d deleted.", id)
	return nil
}

func (c *Console) askID(label string) (int64, error) {
	raw, err := c.ask(label)
	if err != nil {
		return 0, err
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, formError{strings.ToLower(label) + " must be a number"}
	}
	return id, nil
}

func describe(r *domain.Registration) string {
	parts := []string{"no drink"}
	if r.Drink {
		parts[0] = "drink"
	}
	if r.PaymentMode == domain.PaymentNone {
		parts = append(parts, "payment pending")
	} else {
		parts = append(parts, string(r.PaymentMode))
	}
	if r.OutboundBusID != nil {
		parts = append(parts, fmt.Sprintf("bus aller %d", *r.OutboundBusID))
	}
	if r.ReturnBusID != nil {
		parts = append(parts, fmt.Sprintf("bus retour %d", *r.ReturnBusID))
	}
	return strings.Join(parts, ", ")
}

func yes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "o", "oui":
		return true
	}
	return false
}
