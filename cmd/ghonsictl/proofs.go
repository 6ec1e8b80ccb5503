package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/ipfs"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

const previewLen = 100

func newProofsCmd() *cobra.Command {
	var (
		owner    string
		metadata bool
	)
	cmd := &cobra.Command{
		Use:   "proofs",
		Short: "List on-chain proof accounts owned by a wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			pk := client.Payer()
			if owner != "" {
				if pk, err = solana.PublicKeyFromBase58(owner); err != nil {
					return fmt.Errorf("owner: %w", err)
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			records, err := client.ListProofs(ctx, pk)
			if err != nil {
				return err
			}
			printProofRecords(cmd, records, client.Cluster())
			if metadata {
				gw := ipfs.New(ipfs.Config{GatewayURL: cfg.PinataGatewayURL})
				printMetadata(ctx, cmd, gw, records)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner wallet (defaults to the backend wallet)")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "fetch each proof's pinned metadata from the IPFS gateway")
	return cmd
}

func printProofRecords(cmd *cobra.Command, records []chain.ProofRecord, cluster string) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No proofs found for this wallet.")
		return
	}
	bar := strings.Repeat("=", 80)
	fmt.Fprintf(out, "Found %d proof(s):\n\n%s\n", len(records), bar)
	for i, rec := range records {
		acc := rec.Account
		status := acc.StatusName()
		fmt.Fprintf(out, "\n%d. %s\n%s\n", i+1, acc.Title, strings.Repeat("-", 80))
		fmt.Fprintf(out, "   Proof ID: %s\n", acc.ProofID)
		fmt.Fprintf(out, "   Type: %s\n", acc.ProofType)
		fmt.Fprintf(out, "   Status: %s\n", strings.ToUpper(status))
		fmt.Fprintf(out, "   Owner: %s\n", acc.Owner)
		fmt.Fprintf(out, "   NFT Mint: %s\n", acc.Mint)
		fmt.Fprintf(out, "   Submitted: %s\n", time.Unix(acc.SubmissionDate, 0).UTC().Format(time.RFC3339))
		fmt.Fprintf(out, "   Description: %s\n", preview(acc.WorkDescription))
		fmt.Fprintf(out, "   PDA Address: %s\n", rec.Address)
		if status == "verified" || status == "rejected" {
			fmt.Fprintf(out, "   Verified By: %s\n", acc.VerifiedBy)
			fmt.Fprintf(out, "   Verification Date: %s\n", time.Unix(acc.VerificationDate, 0).UTC().Format(time.RFC3339))
			if status == "rejected" {
				fmt.Fprintf(out, "   Rejection Reason: %s\n", acc.RejectionReason)
			}
		}
		fmt.Fprintf(out, "   Explorer: %s\n", chain.AddressURL(rec.Address, cluster))
	}
	fmt.Fprintf(out, "\n%s\n", bar)
}

// printMetadata shows the pinned document behind each record's URI. Records
// whose URI is not on IPFS are skipped.
func printMetadata(ctx context.Context, cmd *cobra.Command, gw *ipfs.Client, records []chain.ProofRecord) {
	out := cmd.OutOrStdout()
	for _, rec := range records {
		cid, ok := ipfs.CIDFromURI(rec.Account.URI)
		if !ok {
			continue
		}
		var meta ipfs.ProofMetadata
		if err := gw.Fetch(ctx, cid, &meta); err != nil {
			fmt.Fprintf(out, "%s: metadata unavailable: %v\n", rec.Account.ProofID, err)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n   Image: %s\n", rec.Account.ProofID, meta.Name, meta.Image)
		for _, a := range meta.Attributes {
			fmt.Fprintf(out, "   %s: %s\n", a.TraitType, a.Value)
		}
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "..."
}
