package main

import (
	"context"
	"fmt"
	"github.com/spf13/pflag"
	"os"
	"rewards/internal/app/app"
	"rewards/internal/app/config"
	"rewards/internal/app/logger"
)

func main() {
	var email string

	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	flags.StringVar(&email, "email", "john.doe@example.com", "Email of the demo user")
	flags.ParseErrorsWhitelist.UnknownFlags = true
	_ = flags.Parse(os.Args[1:])

	c := config.New()
	if err := c.Load(nil); err != nil {
		logger.Global().Fatal().Err(err).Msg("Config load failed")
	}
	l := logger.New(c.LogVerbose, c.LogPretty)

	ctx := context.Background()
	a, err := app.New(ctx, c, l)
	if err != nil {
		l.Fatal().Err(err).Msg("App init failed")
	}
	defer a.Stop()

	u, token, err := a.Seed(ctx, email)
	if err != nil {
		l.Fatal().Err(err).Msg("Seed failed")
	}

	fmt.Printf("user_id: %s\ntoken: %s\n", u.ID, token)
}
