package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/formalizer/fzcore/internal/config"
	"github.com/formalizer/fzcore/internal/graphmod"
	"github.com/formalizer/fzcore/internal/idgen"
	"github.com/formalizer/fzcore/internal/rpc"
	"github.com/formalizer/fzcore/internal/timeparsing"
	"github.com/formalizer/fzcore/internal/types"
)

var (
	addDescription string
	addEffortHours float64
	addWhen        string
	addTDProperty  string
)

// newAddNodeCmd is a client command: it does not touch the store
// directly, instead submitting one ADD_NODE request to a running
// fzcored over the control protocol, the same region-then-notify
// round trip any other modification-request client uses (spec §5).
func newAddNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [description]",
		Short: "Add a Node to a running daemon's Graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddNode,
	}
	cmd.Flags().Float64Var(&addEffortHours, "effort", 0, "estimated remaining effort, in hours")
	cmd.Flags().StringVar(&addWhen, "when", "", `target date, either epoch seconds or free text ("next friday 3pm")`)
	cmd.Flags().StringVar(&addTDProperty, "td-property", "unspecified", "unspecified|inherit|variable|fixed|exact")
	return cmd
}

func runAddNode(cmd *cobra.Command, args []string) error {
	addDescription = args[0]

	dir := resolveStoreDir(storeDir)
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, "fzcored.toml")
	}
	install, err := config.LoadInstallation(cfgPath, viper.New())
	if err != nil {
		return err
	}

	prop, ok := types.ParseTDProperty(addTDProperty)
	if !ok {
		return fmt.Errorf("unrecognized --td-property %q", addTDProperty)
	}

	now := time.Now()
	id, err := idgen.NewNodeIDFromEpoch(now.Unix(), 1)
	if err != nil {
		return fmt.Errorf("minting node id: %w", err)
	}

	n := &types.Node{
		ID:            id,
		Description:   addDescription,
		EffortSeconds: addEffortHours * 3600,
		TDProperty:    prop,
	}
	if addWhen != "" {
		td, err := resolveTargetDate(addWhen, now)
		if err != nil {
			return fmt.Errorf("parsing --when %q: %w", addWhen, err)
		}
		epoch := td.Unix()
		n.TargetDate = &epoch
	}
	if err := n.Validate(); err != nil {
		return fmt.Errorf("invalid node: %w", err)
	}

	batch := graphmod.Batch{Requests: []graphmod.Request{{Kind: graphmod.AddNode, Node: n}}}

	regionDir := filepath.Join(dir, "regions")
	region, err := rpc.AllocateRegion(regionDir)
	if err != nil {
		return fmt.Errorf("allocating region: %w", err)
	}
	defer region.Free()

	if err := region.WriteBatch(batch); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}

	addr := install.TCPAddr
	if addr == "" {
		addr = ":8090"
	}
	client := rpc.NewClient(addr)
	reply, err := client.ProcessRegion(region.Name)
	if err != nil {
		return fmt.Errorf("submitting batch: %w", err)
	}

	var results []graphmod.Result
	if err := region.ReadResult(&results); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added node %s\n", id)
	return nil
}

// resolveTargetDate accepts either a bare epoch-seconds integer or a
// natural-language expression understood relative to base.
func resolveTargetDate(when string, base time.Time) (time.Time, error) {
	var epoch int64
	if err := json.Unmarshal([]byte(when), &epoch); err == nil {
		return time.Unix(epoch, 0).Local(), nil
	}
	return timeparsing.ParseNaturalLanguage(when, base)
}
