package main

import (
	"context"
	"fmt"
	"time"

	"ghonsi-proof/internal/chain"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <signature>...",
		Short: "Print confirmation status for transaction signatures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			client, err := chain.NewClient(chain.Config{
				RPCURL:     cfg.SolanaRPCURL,
				Cluster:    cfg.SolanaCluster,
				ProgramID:  cfg.ProgramID,
				BackendKey: cfg.BackendKey,
			})
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			statuses, err := client.SignatureStatuses(ctx, args)
			if err != nil {
				return err
			}
			printStatuses(cmd, statuses, client.Cluster())
			return nil
		},
	}
}

func printStatuses(cmd *cobra.Command, statuses []chain.SignatureStatus, cluster string) {
	out := cmd.OutOrStdout()
	for _, s := range statuses {
		line := fmt.Sprintf("%s  %s", s.Signature, s.Status)
		if s.Err != "" {
			line += "  error=" + s.Err
		}
		fmt.Fprintln(out, line)
		fmt.Fprintln(out, "  "+chain.TxURL(s.Signature, cluster))
	}
}
