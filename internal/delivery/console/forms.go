package console

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"studentevents/internal/domain"
)

// Events happen on a day; buses leave at a time.
const (
	dayLayout  = "2006-01-02"
	dateLayout = "2006-01-02 15:04"
)

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validator is implemented by forms that check their input before it reaches a service.
// Validate returns a slice of error messages; nil or empty means valid.
type Validator interface {
	Validate() []string
}

func validate(v Validator) error {
	if errs := v.Validate(); len(errs) > 0 {
		return formError(errs)
	}
	return nil
}

type signUpForm struct {
	Pseudo    string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Validate implements Validator.
func (f signUpForm) Validate() []string {
	var errs []string
	if strings.TrimSpace(f.Pseudo) == "" {
		errs = append(errs, "pseudo is required")
	}
	if strings.TrimSpace(f.FirstName) == "" || strings.TrimSpace(f.LastName) == "" {
		errs = append(errs, "first and last name are required")
	}
	email := strings.TrimSpace(strings.ToLower(f.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if len(f.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

type signInForm struct {
	Email    string
	Password string
}

// Validate implements Validator.
func (f signInForm) Validate() []string {
	var errs []string
	if strings.TrimSpace(f.Email) == "" {
		errs = append(errs, "email is required")
	}
	if f.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

type eventForm struct {
	Title       string
	Location    string
	Description string
	Date        string
	Capacity    string
	Fare        string
}

// event parses the raw fields. Entity bounds are only checked once every field parses.
func (f eventForm) event() (*domain.Event, []string) {
	var errs []string
	date, err := time.Parse(dayLayout, strings.TrimSpace(f.Date))
	if err != nil {
		errs = append(errs, "date must look like 2025-12-31")
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(f.Capacity))
	if err != nil {
		errs = append(errs, "capacity must be a whole number")
	}
	fare, err := parseCents(f.Fare)
	if err != nil {
		errs = append(errs, "fare must look like 12.50")
	}
	e := domain.NewEvent(strings.TrimSpace(f.Title), strings.TrimSpace(f.Location), strings.TrimSpace(f.Description), date, capacity, fare, 0, time.Time{})
	if len(errs) == 0 {
		errs = e.Validate()
	}
	return e, errs
}

// Validate implements Validator.
func (f eventForm) Validate() []string {
	_, errs := f.event()
	return errs
}

// parseCents reads an amount such as "12", "12.5" or "12,50" into cents. Empty means free.
func parseCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, nil
	}
	whole, frac, found := strings.Cut(s, ".")
	if found && (len(frac) == 0 || len(frac) > 2) {
		return 0, strconv.ErrSyntax
	}
	units, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, err
	}
	var cents uint64
	if found {
		if cents, err = strconv.ParseUint(frac, 10, 8); err != nil {
			return 0, err
		}
		if len(frac) == 1 {
			cents *= 10
		}
	}
	return int64(units*100 + cents), nil
}

type busForm struct {
	EventID   string
	Direction string
	Stop      string
	Departure string
	Capacity  string
}

func (f busForm) bus() (*domain.Bus, []string) {
	var errs []string
	eventID, err := parseID(f.EventID)
	if err != nil {
		errs = append(errs, "event id must be a number")
	}
	var direction domain.Direction
	switch strings.ToLower(strings.TrimSpace(f.Direction)) {
	case "1", string(domain.DirectionOutbound):
		direction = domain.DirectionOutbound
	case "2", string(domain.DirectionReturn):
		direction = domain.DirectionReturn
	default:
		errs = append(errs, "direction must be aller or retour")
	}
	departure, err := time.ParseInLocation(dateLayout, strings.TrimSpace(f.Departure), time.Local)
	if err != nil {
		errs = append(errs, "departure must look like 2025-12-31 18:30")
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(f.Capacity))
	if err != nil {
		errs = append(errs, "capacity must be a whole number")
	}
	b := domain.NewBus(eventID, direction, strings.TrimSpace(f.Stop), departure, capacity)
	if len(errs) == 0 {
		errs = b.Validate()
	}
	return b, errs
}

// Validate implements Validator.
func (f busForm) Validate() []string {
	_, errs := f.bus()
	return errs
}

type enrollForm struct {
	EventID  string
	Drink    string
	Payment  string
	Outbound string
	Return   string
}

func (f enrollForm) input(userID int64) (domain.EnrollInput, []string) {
	var errs []string
	in := domain.EnrollInput{UserID: userID}
	var err error
	if in.EventID, err = parseID(f.EventID); err != nil {
		errs = append(errs, "event id must be a number")
	}
	switch strings.ToLower(strings.TrimSpace(f.Drink)) {
	case "y", "yes", "o", "oui":
		in.Drink = true
	case "", "n", "no", "non":
	default:
		errs = append(errs, "drink must be y or n")
	}
	switch strings.ToLower(strings.TrimSpace(f.Payment)) {
	case "":
		in.PaymentMode = domain.PaymentNone
	case "1", string(domain.PaymentCash):
		in.PaymentMode = domain.PaymentCash
	case "2", string(domain.PaymentOnline):
		in.PaymentMode = domain.PaymentOnline
	default:
		errs = append(errs, "payment must be 1 (espece), 2 (en ligne) or empty")
	}
	if in.OutboundBusID, err = optionalID(f.Outbound); err != nil {
		errs = append(errs, "outbound bus must be a number or empty")
	}
	if in.ReturnBusID, err = optionalID(f.Return); err != nil {
		errs = append(errs, "return bus must be a number or empty")
	}
	return in, errs
}

// Validate implements Validator.
func (f enrollForm) Validate() []string {
	_, errs := f.input(0)
	return errs
}

type codeForm struct {
	Code string
}

func (f codeForm) code() (int64, []string) {
	code, err := strconv.ParseInt(strings.TrimSpace(f.Code), 10, 64)
	if err != nil || !domain.ValidReservationCode(code) {
		return 0, []string{"reservation code must have 8 digits"}
	}
	return code, nil
}

// Validate implements Validator.
func (f codeForm) Validate() []string {
	_, errs := f.code()
	return errs
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

func optionalID(s string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
