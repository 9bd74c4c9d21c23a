package cmd

import (
	"context"
	"fmt"
	"os"

	"slot-booking/pkg/database"
	"slot-booking/pkg/utils"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := utils.LoadConfig()
			if err != nil {
				return err
			}

			db, err := database.InitDB(config.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(context.Background(), db)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Fprintln(os.Stdout, "schema up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(os.Stdout, "applied %s\n", name)
			}
			return nil
		},
	}
}
