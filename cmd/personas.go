package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auravoice/auravoice/internal/config"
	"github.com/auravoice/auravoice/internal/persona"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available personas",
	RunE:  runPersonas,
}

func runPersonas(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	catalog, err := persona.LoadEmbedded()
	if err != nil {
		return err
	}

	fmt.Printf("%s Personas\n\n", logo)
	for _, p := range catalog.List() {
		mark := " "
		if p.ID == cfg.Personas.Default {
			mark = "*"
		}
		fmt.Printf("%s %-20s %s\n", mark, p.ID, p.Name)
		fmt.Printf("    %s\n", p.Description)
		fmt.Printf("    tools: %s\n\n", strings.Join(p.Tools, ", "))
	}
	fmt.Println("* = configured default")
	return nil
}
