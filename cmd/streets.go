package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var streetsLimit int

var streetsCmd = &cobra.Command{
	Use:   "streets <prefix>",
	Short: "Search the authoritative street names by prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		names := env.Streets.SearchPrefix(args[0], streetsLimit)
		if len(names) == 0 {
			fmt.Println("no matching streets")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	streetsCmd.Flags().IntVarP(&streetsLimit, "limit", "n", 20, "maximum results")
	rootCmd.AddCommand(streetsCmd)
}
