// @title                      Share Marketplace API
// @version                    1.0
// @description                Owners list businesses with shares; buyers place orders that owners accept or reject.
// @BasePath                   /
// @securityDefinitions.basic  BasicAuth
package main

import (
	"os"

	"github.com/99minutos/share-marketplace/cmd/marketplace/commands"
)

func main() {
	root := commands.RootCmd
	root.AddCommand(
		commands.ServeCmd,
		commands.MigrateCmd,
		commands.NewUserCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
