package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeEmailData holds data for the account creation email.
type WelcomeEmailData struct {
	Email     string
	Pseudo    string
	FirstName string
}

// ConfirmationEmailData holds data for the registration confirmation email.
type ConfirmationEmailData struct {
	Email           string
	Pseudo          string
	EventTitle      string
	EventDate       time.Time
	EventLocation   string
	ReservationCode int64
	Drink           bool
	PaymentMode     PaymentMode
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcome(ctx context.Context, data *WelcomeEmailData) error
	SendRegistrationConfirmation(ctx context.Context, data *ConfirmationEmailData) error
}
