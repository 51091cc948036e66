package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a brew permanently",
	Long: `Delete a brew by ID. IDs are never reused, so deleting leaves a
permanent gap in the sequence.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fail("invalid brew id %q", args[0])
		}

		st, logger, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		ctx := context.Background()
		row, err := st.Get(ctx, id)
		if err != nil {
			fail("%v", err)
		}
		if row == nil {
			fail("No brew found with ID %d.", id)
		}

		if !deleteForce {
			var confirmed bool
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Delete brew #%d (%s, %s)?", id, row.Date, row.Type)).
				Description("This cannot be undone.").
				Value(&confirmed)
			if err := prompt.Run(); err != nil {
				fail("%v", err)
			}
			if !confirmed {
				fmt.Println("Delete cancelled.")
				return
			}
		}

		found, err := st.Delete(ctx, id)
		if err != nil {
			fail("%v", err)
		}
		if !found {
			fail("No brew found with ID %d.", id)
		}
		logger.Printf("delete: brew %d", id)
		fmt.Printf("Deleted brew #%d.\n", id)
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip the confirmation prompt")
}
