package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/camldex/camldex/internal/cache"
	"github.com/camldex/camldex/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the index snapshot",
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the snapshot path for the current switch",
	Run: func(cmd *cobra.Command, args []string) {
		_, root := setup()
		fmt.Println(config.SnapshotPath(root))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the snapshot so the next command rescans",
	Run: func(cmd *cobra.Command, args []string) {
		_, root := setup()
		if !cache.Exists(root) {
			fmt.Println("no snapshot to clear")
			return
		}
		if err := cache.Remove(root); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println("snapshot cleared")
	},
}

func init() {
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
