package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mintworks/mintgate/pkg/guard"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and the guard data buffer",
	Long: `Validate loads the configuration file, checks it for inconsistencies,
and decodes the guard data buffer it points at. It exits non-zero on the
first problem found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Println("configuration: ok")

		raw, err := os.ReadFile(cfg.GuardData.Path)
		if err != nil {
			return fmt.Errorf("read guard data %s: %w", cfg.GuardData.Path, err)
		}
		data, err := guard.Unmarshal(raw)
		if err != nil {
			return fmt.Errorf("guard data %s: %w", cfg.GuardData.Path, err)
		}

		fmt.Printf("guard data: ok (%d bytes, %d guards in default set, %d groups)\n",
			len(raw), len(data.Default.Enabled()), len(data.Groups))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
