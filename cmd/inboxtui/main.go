package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/app"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/config"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	// .env is optional; INBOX_TOKEN usually lives there in development.
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	profileName := profile.Resolve(*profileFlag, cfg.DefaultProfile)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fxApp := fx.New(
		app.Module(app.Params{ProfileName: profileName}),
		// tview owns the terminal; fx's own log lines would corrupt it.
		fx.NopLogger,
	)

	fxApp.Run()
}
