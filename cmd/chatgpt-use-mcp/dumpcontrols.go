// Copyright 2025 Minseo Park
//
// dump-controls command: print every control in the ChatGPT window

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minseopark/chatgpt-use-mcp/internal/chatgpt"
)

// dumpControlsCmd prints role and accessible name for every control in the
// ChatGPT window. Useful when the app UI is in a locale whose menu titles
// the new-chat fallbacks do not cover.
var dumpControlsCmd = &cobra.Command{
	Use:   "dump-controls",
	Short: "List the controls in the ChatGPT window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		client := chatgpt.NewClient()
		controls, err := client.DumpControls(ctx)
		if err != nil {
			return err
		}
		if len(controls) == 0 {
			fmt.Println("No controls found in the ChatGPT window")
			return nil
		}

		fmt.Printf("Found %d controls:\n", len(controls))
		for i, ctrl := range controls {
			name := ctrl.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%d. %s - %s\n", i+1, ctrl.Role, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpControlsCmd)
}
