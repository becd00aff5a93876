package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mvKV/cmd/bench"
	"github.com/ValentinKolb/mvKV/cmd/inspect"
	"github.com/ValentinKolb/mvKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mvkv",
		Short: "persistence layer for a distributed key-value store",
		Long: fmt.Sprintf(`mvKV (v%s)

The persistence layer of a distributed, transactional key-value store:
column-family management for the embedded storage engine and per-file
multi-version statistics used by garbage collection.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mvKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mvKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "path"
	RootCmd.PersistentFlags().String(key, "./mvkv-data", util.WrapString("path of the engine directory"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
