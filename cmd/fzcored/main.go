// Command fzcored is the resident daemon: it holds one Graph in memory,
// serves the control protocol (spec §5, §6) over TCP, and periodically
// runs BATCH_TPASS and the EPS scheduler. Structured the way the
// teacher's cmd/bd root command is structured — a persistent-flag root
// plus subcommands — but scaled down to the handful of verbs this
// daemon actually needs (serve, lock-status, version, add) rather than
// the teacher's much larger CLI surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	storeDir   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fzcored:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fzcored",
		Short:         "Resident scheduler daemon for a Formalizer-style task graph",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to fzcored.toml (default $HOME/.config/fzcore/fzcored.toml)")
	root.PersistentFlags().StringVar(&storeDir, "store-dir", "", "directory holding the daemon lock, persistence DB, and region files (default $HOME/.config/fzcore)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newLockStatusCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newAddNodeCmd())
	return root
}
