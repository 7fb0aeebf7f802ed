// Command console runs the student association event registration console.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"os"

	"studentevents/config"
	"studentevents/internal/adapters/auth"
	"studentevents/internal/adapters/email"
	"studentevents/internal/delivery/console"
	"studentevents/internal/repository/postgres"
	"studentevents/internal/repository/postgres/migrations"
	"studentevents/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	reset := flag.Bool("reset", false, "drop every table and re-create the schema before starting")
	adminSignUp := flag.Bool("admin-signup", false, "let the sign-up form create administrator accounts")
	flag.Parse()

	cfg, err := config.Load()
	logger := config.NewLogger(os.Stderr)
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Store.DSN(), cfg.Store.Timeout)
	if err != nil {
		logger.Error("store unreachable", "host", cfg.Store.Host, "database", cfg.Store.Database, "error", err)
		return 1
	}
	defer db.Close()

	runner := migrations.NewRunner(db, cfg.Store.Schema, logger)
	if *reset {
		err = runner.Reset()
	} else {
		err = runner.Up()
	}
	if err != nil {
		logger.Error("migrate schema", "error", err)
		return 1
	}

	store := postgres.NewStore(db)
	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mail.Provider,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		SES: email.SESConfig{
			Region:          cfg.Mail.Region,
			AccessKeyID:     cfg.Mail.AccessKeyID,
			SecretAccessKey: cfg.Mail.Token,
		},
	}, logger)
	emails := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	catalog := services.NewCatalogService(store, logger, nil)
	identity := services.NewIdentityService(store, catalog, auth.NewBcryptHasher(cfg.BcryptCost), emails, logger)
	registrations := services.NewRegistrationService(store, catalog, emails, logger, nil)

	if err := catalog.RefreshStatuses(ctx); err != nil {
		logger.Warn("refresh event statuses", "error", err)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if secret, err = randomSecret(); err != nil {
			logger.Error("generate session secret", "error", err)
			return 1
		}
		logger.Debug("SESSION_SECRET unset, sessions last for this process only")
	}

	c := console.New(os.Stdin, os.Stdout, console.Deps{
		Identity:      identity,
		Catalog:       catalog,
		Registrations: registrations,
		Sessions:      auth.NewJWTSessions(secret),
		Logger:        logger,
		SessionTTL:    cfg.SessionTTL,
		AdminSignUp:   *adminSignUp,
	})
	if err := c.Run(ctx); err != nil {
		logger.Error("console stopped", "error", err)
		return 1
	}
	return 0
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
