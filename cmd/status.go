package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/auravoice/auravoice/internal/config"
	"github.com/auravoice/auravoice/internal/reminders"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show auravoice status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s auravoice Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	_, dbErr := os.Stat(cfg.Store.Path)
	dbMark := "✗"
	if dbErr == nil {
		dbMark = "✓"
	}
	fmt.Printf("Database:  %s %s\n", cfg.Store.Path, dbMark)
	fmt.Printf("Model:     %s (voice %s)\n", cfg.Realtime.Model, cfg.Realtime.Voice)
	fmt.Printf("Persona:   %s\n\n", cfg.Personas.Default)

	fmt.Println("Credentials:")
	printKeyStatus("OpenAI API key", cfg.OpenAIAPIKey)
	printKeyStatus("OpenWeather API key", cfg.OpenWeatherAPIKey)
	if cfg.OpenWeatherAPIKey == "" {
		fmt.Println("    (weather degrades to synthetic reports)")
	}

	fmt.Printf("\nGuardrail: %d denylist terms, %s cool-down\n",
		len(cfg.Guardrail.Denylist), cfg.Guardrail.Cooldown)

	if cfg.Reminders.Enabled {
		svc := reminders.NewService(cfg.Reminders.Schedule, cfg.Reminders.Message, nil)
		next, err := svc.NextRun(time.Now())
		if err != nil {
			fmt.Printf("Reminders: invalid schedule %q\n", cfg.Reminders.Schedule)
		} else {
			fmt.Printf("Reminders: next at %s\n", next.Format(time.RFC1123))
		}
	} else {
		fmt.Println("Reminders: disabled")
	}
	return nil
}

func printKeyStatus(label, key string) {
	if key != "" {
		fmt.Printf("  %-22s ✓\n", label)
	} else {
		fmt.Printf("  %-22s (not set)\n", label)
	}
}
