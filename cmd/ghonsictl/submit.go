package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/ipfs"

	"github.com/spf13/cobra"
)

const submitUsage = `
Ghonsi Proof - Submit Proof to Blockchain

Usage:
  ghonsictl submit-proof "<proof_id>" "<title>" "<description>" "<proof_type>"

Example:
  ghonsictl submit-proof "PROOF-2025-001" "My E-commerce App" "Built a full-stack e-commerce platform with React and Node.js" "Software Development"

Proof Types:
  - Software Development
  - Design
  - Writing
  - Research
  - Marketing
  - Other

The command will:
  1. Upload metadata to Pinata (IPFS)
  2. Submit proof to Solana blockchain
  3. Mint a soulbound NFT
  4. Return transaction ID for verification
`

const rule = "----------------------------------------"

func newSubmitCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "submit-proof <proof_id> <title> <description> <proof_type>",
		Short: "Pin proof metadata and mint the proof NFT with the backend wallet",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) < 4 {
				fmt.Fprint(out, submitUsage)
				return &exitError{code: 1}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return submitProof(ctx, cmd, args[0], args[1], args[2], args[3])
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	return cmd
}

func submitProof(ctx context.Context, cmd *cobra.Command, proofID, title, description, proofType string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Starting Proof Submission")
	fmt.Fprintln(out, "=========================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Proof ID:", proofID)
	fmt.Fprintln(out, "Title:", title)
	fmt.Fprintln(out, "Type:", proofType)
	fmt.Fprintln(out)

	cfg := loadConfig(cmd)
	pinata := ipfs.New(ipfs.Config{JWT: cfg.PinataJWT, APIURL: cfg.PinataAPIURL, GatewayURL: cfg.PinataGatewayURL})
	if !pinata.Configured() {
		return fmt.Errorf("PINATA_JWT is not set")
	}
	client, err := chain.NewClient(chain.Config{
		RPCURL:        cfg.SolanaRPCURL,
		Cluster:       cfg.SolanaCluster,
		ProgramID:     cfg.ProgramID,
		BackendKey:    cfg.BackendKey,
		MinBalanceSOL: cfg.MinBalanceSOL,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Uploading metadata to Pinata...")
	meta := ipfs.BuildProofMetadata(ipfs.MetadataInput{
		ProofID:     proofID,
		Title:       title,
		Description: description,
		ProofType:   proofType,
	})
	pin, err := pinata.PinJSON(ctx, meta, ipfs.MetadataName(proofID))
	if err != nil {
		return fmt.Errorf("pinata upload failed: %w", err)
	}
	uri := pinata.GatewayURL(pin.IpfsHash)
	fmt.Fprintln(out, "Uploaded to IPFS:", uri)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Submitting to Solana Blockchain")
	fmt.Fprintln(out, "===============================")
	fmt.Fprintln(out, "Program ID:", client.ProgramID())
	fmt.Fprintln(out, "Wallet:", client.Payer())
	fmt.Fprintln(out, "Cluster:", cfg.SolanaRPCURL)
	bal, err := client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	fmt.Fprintln(out, "Balance:", bal.StringFixed(4), "SOL")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Submitting transaction...")
	res, err := client.Mint(ctx, chain.SubmitRequest{
		ProofID:     proofID,
		Title:       title,
		Description: description,
		ProofType:   proofType,
		URI:         uri,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "SUCCESS! Proof submitted on-chain!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Transaction Details:")
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Transaction ID:", res.Signature)
	fmt.Fprintln(out, "Proof PDA:", res.ProofPDA)
	fmt.Fprintln(out, "NFT Mint:", res.Mint)
	fmt.Fprintln(out, "Metadata URI:", uri)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "View on Explorer:")
	fmt.Fprintln(out, chain.TxURL(res.Signature, client.Cluster()))
	fmt.Fprintln(out, chain.AddressURL(res.ProofPDA, client.Cluster()))

	// The account may not be visible yet at the read commitment.
	if acc, err := client.FetchProof(ctx, res.ProofPDA); err == nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "On-Chain Proof Data:")
		fmt.Fprintln(out, rule)
		printProofAccount(out, acc)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "The NFT is now frozen in your wallet (soulbound)")
		fmt.Fprintln(out, rule)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "All done! Your proof is now on-chain and backed by IPFS.")
	return nil
}

func printProofAccount(out io.Writer, acc *chain.ProofAccount) {
	fmt.Fprintln(out, "Owner:", acc.Owner)
	fmt.Fprintln(out, "Proof ID:", acc.ProofID)
	fmt.Fprintln(out, "Title:", acc.Title)
	fmt.Fprintln(out, "Type:", acc.ProofType)
	fmt.Fprintln(out, "Status:", strings.ToUpper(acc.StatusName()))
	fmt.Fprintln(out, "Submission:", time.Unix(acc.SubmissionDate, 0).UTC().Format(time.RFC3339))
}
