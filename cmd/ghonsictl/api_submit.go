package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"ghonsi-proof/pkg/ghonsiclient"

	"github.com/spf13/cobra"
)

func newAPISubmitCmd() *cobra.Command {
	var apiURL, token string
	cmd := &cobra.Command{
		Use:   "api-submit <proof_id> <title> <description> <proof_type> <ipfs_uri> <wallet>",
		Short: "Submit an already pinned proof through the HTTP API",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("GHONSI_TOKEN")
			}
			c := ghonsiclient.New(apiURL, token)
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			res, err := c.SubmitProof(ctx, ghonsiclient.SubmitProofRequest{
				ProofID:       args[0],
				Title:         args[1],
				Description:   args[2],
				ProofType:     args[3],
				IPFSURI:       args[4],
				WalletAddress: args[5],
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	def := os.Getenv("GHONSI_API_URL")
	if def == "" {
		def = "http://localhost:3001"
	}
	cmd.Flags().StringVar(&apiURL, "api", def, "API base URL")
	cmd.Flags().StringVar(&token, "token", "", "access token (defaults to GHONSI_TOKEN)")
	return cmd
}
