package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentevents/internal/domain"
)

func TestEmailService_SendRegistrationConfirmation(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer, discardLogger())

	err := svc.SendRegistrationConfirmation(context.Background(), &domain.ConfirmationEmailData{
		Email:           "a@b.c",
		EventTitle:      "Gala",
		ReservationCode: 12345678,
	})
	require.NoError(t, err)

	assert.Equal(t, "registration_confirmation", renderer.last)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@b.c", mailer.sent[0].to)
	assert.Equal(t, "subject registration_confirmation", mailer.sent[0].subject)
}

func TestEmailService_SendWelcome(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer, discardLogger())

	require.NoError(t, svc.SendWelcome(context.Background(), &domain.WelcomeEmailData{Email: "a@b.c", FirstName: "Ana"}))
	assert.Equal(t, "welcome", renderer.last)
	require.Len(t, mailer.sent, 1)
}

func TestEmailService_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		mailer   *fakeMailer
		renderer *fakeRenderer
		data     *domain.WelcomeEmailData
		wantMsg  string
	}{
		{name: "nil data", mailer: &fakeMailer{}, renderer: &fakeRenderer{}, wantMsg: "welcome email data is nil"},
		{name: "render failure", mailer: &fakeMailer{}, renderer: &fakeRenderer{err: errors.New("bad template")}, data: &domain.WelcomeEmailData{Email: "a@b.c"}, wantMsg: "failed to render welcome template"},
		{name: "send failure", mailer: &fakeMailer{err: errors.New("ses down")}, renderer: &fakeRenderer{}, data: &domain.WelcomeEmailData{Email: "a@b.c"}, wantMsg: "failed to send welcome email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEmailService(tt.mailer, tt.renderer, discardLogger())
			err := svc.SendWelcome(ctx, tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, tt.mailer.sent)
		})
	}
}
