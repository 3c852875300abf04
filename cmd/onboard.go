package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/auravoice/auravoice/internal/config"
)

var onboardForce bool

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create the default configuration",
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().BoolVarP(&onboardForce, "force", "f", false, "Overwrite an existing config")
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil && !onboardForce {
		fmt.Printf("%s Config already exists at %s (use --force to overwrite)\n", logo, cfgPath)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.Save(&cfg, cfgPath); err != nil {
		return err
	}

	fmt.Printf("%s Wrote %s\n\n", logo, cfgPath)
	fmt.Println("Next steps:")
	fmt.Println("  export OPENAI_API_KEY=sk-...        # required for voice sessions")
	fmt.Println("  export OPENWEATHER_API_KEY=...      # optional, enables real weather")
	fmt.Println("  auravoice serve")
	return nil
}
