package cmd

import (
	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cobra"
)

// migrateCmd creates or upgrades every table registered by the stores
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "create or upgrade database tables",
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			cmd.PrintErrln("migrate failed:", err)
			return
		}

		cmd.Println("database migrated")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
