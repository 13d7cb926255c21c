package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/formalizer/fzcore/internal/lockfile"
)

func newLockStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock-status",
		Short: "Report which process, if any, holds the daemon lock for --store-dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := resolveStoreDir(storeDir)
			info, err := lockfile.ReadDaemonLockInfo(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "no daemon lock recorded for", dir)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pid=%d store_dir=%s version=%s started_at=%s\n",
				info.PID, info.StoreDir, info.Version, info.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}
}

func resolveStoreDir(dir string) string {
	if dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fzcore")
}
