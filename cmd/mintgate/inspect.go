package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mintworks/mintgate/pkg/guard"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [guard-data-file]",
	Short: "Decode a guard data buffer and list the enabled guards",
	Long: `Inspect decodes a serialized guard configuration buffer and prints the
default guard set and every labeled group. With no argument, the path
comes from the configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.GuardData.Path
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		data, err := guard.Unmarshal(raw)
		if err != nil {
			return err
		}

		fmt.Printf("guard data: %s (%d bytes, %d groups)\n", path, len(raw), len(data.Groups))
		printSet("default", data.Default)
		for _, group := range data.Groups {
			printSet(fmt.Sprintf("group %q", group.Label), group.Guards)
		}
		return nil
	},
}

func printSet(name string, set *guard.Set) {
	enabled := set.Enabled()
	fmt.Printf("\n%s (features %#x):\n", name, set.Features())
	if len(enabled) == 0 {
		fmt.Println("  (no guards enabled)")
		return
	}
	for _, g := range enabled {
		fmt.Printf("  %-24s offset %4d  size %3d\n", g.Kind(), g.Kind().Offset(), g.Kind().Size())
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
