package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"ghonsi-proof/internal/observability/metrics"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type Config struct {
	RPCURL        string
	Cluster       string
	ProgramID     string
	BackendKey    string
	MinBalanceSOL string
}

// Client builds, signs and sends program instructions with the backend wallet
// as fee payer.
type Client struct {
	rpc        *rpc.Client
	program    solana.PublicKey
	payer      solana.PrivateKey
	cluster    string
	minBalance decimal.Decimal
}

func NewClient(cfg Config) (*Client, error) {
	program, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}
	payer, err := ParseKeypair(cfg.BackendKey)
	if err != nil {
		return nil, err
	}
	minBal := decimal.NewFromFloat(0.1)
	if cfg.MinBalanceSOL != "" {
		if minBal, err = decimal.NewFromString(cfg.MinBalanceSOL); err != nil {
			return nil, fmt.Errorf("min balance: %w", err)
		}
	}
	return &Client{
		rpc:        rpc.New(cfg.RPCURL),
		program:    program,
		payer:      payer,
		cluster:    cfg.Cluster,
		minBalance: minBal,
	}, nil
}

func (c *Client) ProgramID() solana.PublicKey { return c.program }
func (c *Client) Payer() solana.PublicKey     { return c.payer.PublicKey() }
func (c *Client) Cluster() string             { return c.cluster }

// LamportsToSOL converts a lamport amount to SOL without float rounding.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}

// CheckBalance fails when lamports is below min SOL.
func CheckBalance(lamports uint64, need decimal.Decimal) error {
	have := LamportsToSOL(lamports)
	if have.LessThan(need) {
		return fmt.Errorf("%w: have %s SOL, need at least %s SOL", ErrInsufficientBalance, have.StringFixed(4), need.String())
	}
	return nil
}

func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	res, err := c.rpc.GetBalance(ctx, c.payer.PublicKey(), rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, err
	}
	return LamportsToSOL(res.Value), nil
}

func (c *Client) EnsureBalance(ctx context.Context) error {
	res, err := c.rpc.GetBalance(ctx, c.payer.PublicKey(), rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	return CheckBalance(res.Value, c.minBalance)
}

// Result is what a successful submission returns.
type Result struct {
	Signature string
	ProofPDA  string
	Mint      string
	At        time.Time
}

// SubmitRequest carries the fields recorded on chain for a proof.
type SubmitRequest struct {
	ProofID     string
	Title       string
	Description string
	ProofType   string
	URI         string
	Wallet      string
}

// Submit sends submit_proof for req.Wallet with the backend paying fees.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	result := "success"
	defer func() { metrics.ChainSubmissionsTotal.WithLabelValues("submit_proof", result).Inc() }()

	user, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("wallet address: %w", err)
	}
	pda, err := ProofRecordPDA(c.program, user, req.ProofID)
	if err != nil {
		result = "failure"
		return nil, err
	}
	if err := c.EnsureBalance(ctx); err != nil {
		result = "failure"
		return nil, err
	}
	data, err := encodeInstruction("submit_proof", submitProofArgs{
		ProofID:     req.ProofID,
		Title:       req.Title,
		Description: req.Description,
		ProofType:   req.ProofType,
		URI:         req.URI,
	})
	if err != nil {
		result = "failure"
		return nil, err
	}
	ix := solana.NewInstruction(c.program, solana.AccountMetaSlice{
		solana.NewAccountMeta(pda, true, false),
		solana.NewAccountMeta(user, false, false),
		solana.NewAccountMeta(c.payer.PublicKey(), true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, data)

	sig, err := c.send(ctx, []solana.Instruction{ix}, nil)
	if err != nil {
		result = "failure"
		return nil, err
	}
	slog.Info("submit_proof sent", "proof_id", req.ProofID, "proof_pda", pda.String(), "signature", sig.String())
	return &Result{Signature: sig.String(), ProofPDA: pda.String(), At: time.Now().UTC()}, nil
}

// Mint sends mint_proof with the backend wallet as owner, creating a fresh NFT
// mint and collection mint.
func (c *Client) Mint(ctx context.Context, req SubmitRequest) (*Result, error) {
	result := "success"
	defer func() { metrics.ChainSubmissionsTotal.WithLabelValues("mint_proof", result).Inc() }()

	r, err := c.mint(ctx, req)
	if err != nil {
		result = "failure"
	}
	return r, err
}

func (c *Client) mint(ctx context.Context, req SubmitRequest) (*Result, error) {
	if err := c.EnsureBalance(ctx); err != nil {
		return nil, err
	}
	owner := c.payer.PublicKey()
	mint, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	collection, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}

	programAuthority, err := ProgramAuthorityPDA(c.program)
	if err != nil {
		return nil, err
	}
	mintAuthority, err := MintAuthorityPDA(c.program)
	if err != nil {
		return nil, err
	}
	proofPDA, err := MintedProofPDA(c.program, owner, mint.PublicKey())
	if err != nil {
		return nil, err
	}
	metadata, err := MetadataPDA(mint.PublicKey())
	if err != nil {
		return nil, err
	}
	tokenAccount, err := TokenAccountPDA(owner, mint.PublicKey())
	if err != nil {
		return nil, err
	}
	admin, err := c.ProgramAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch program authority: %w", err)
	}

	data, err := encodeInstruction("mint_proof", mintProofArgs{
		ProofID:     req.ProofID,
		Title:       req.Title,
		URI:         req.URI,
		Description: req.Description,
		ProofType:   req.ProofType,
	})
	if err != nil {
		return nil, err
	}
	ix := solana.NewInstruction(c.program, solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(proofPDA, true, false),
		solana.NewAccountMeta(mint.PublicKey(), true, true),
		solana.NewAccountMeta(tokenAccount, true, false),
		solana.NewAccountMeta(mintAuthority, false, false),
		solana.NewAccountMeta(programAuthority, false, false),
		solana.NewAccountMeta(collection.PublicKey(), true, false),
		solana.NewAccountMeta(admin, false, false),
		solana.NewAccountMeta(metadata, true, false),
		solana.NewAccountMeta(MetadataProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}, data)

	sig, err := c.send(ctx, []solana.Instruction{ix}, []solana.PrivateKey{mint})
	if err != nil {
		return nil, err
	}
	slog.Info("mint_proof sent", "proof_id", req.ProofID, "proof_pda", proofPDA.String(), "mint", mint.PublicKey().String(), "signature", sig.String())
	return &Result{
		Signature: sig.String(),
		ProofPDA:  proofPDA.String(),
		Mint:      mint.PublicKey().String(),
		At:        time.Now().UTC(),
	}, nil
}

// send signs with the payer plus extra signers and submits with preflight.
func (c *Client) send(ctx context.Context, ixs []solana.Instruction, extra []solana.PrivateKey) (solana.Signature, error) {
	latest, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(ixs, latest.Value.Blockhash, solana.TransactionPayer(c.payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, err
	}
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(c.payer.PublicKey()) {
			return &c.payer
		}
		for i := range extra {
			if pk.Equals(extra[i].PublicKey()) {
				return &extra[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// ProgramAdmin reads primary_admin from the ProgramAuthority account.
func (c *Client) ProgramAdmin(ctx context.Context) (solana.PublicKey, error) {
	pda, err := ProgramAuthorityPDA(c.program)
	if err != nil {
		return solana.PublicKey{}, err
	}
	data, err := c.accountData(ctx, pda)
	if err != nil {
		return solana.PublicKey{}, err
	}
	var pa programAuthority
	if err := decodeAccount("ProgramAuthority", data, &pa); err != nil {
		return solana.PublicKey{}, err
	}
	return pa.PrimaryAdmin, nil
}

func (c *Client) accountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, rpc.ErrNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

// FetchProof loads and decodes a Proof account.
func (c *Client) FetchProof(ctx context.Context, address string) (*ProofAccount, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, pk)
	if err != nil {
		return nil, err
	}
	return DecodeProofAccount(data)
}

type ProofRecord struct {
	Address string
	Account *ProofAccount
}

// ListProofs returns every Proof account owned by owner.
func (c *Client) ListProofs(ctx context.Context, owner solana.PublicKey) ([]ProofRecord, error) {
	disc := AccountDiscriminator("Proof")
	accounts, err := c.rpc.GetProgramAccountsWithOpts(ctx, c.program, &rpc.GetProgramAccountsOpts{
		Filters: []rpc.RPCFilter{
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: solana.Base58(disc[:])}},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: ownerOffset, Bytes: solana.Base58(owner.Bytes())}},
		},
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProofRecord, 0, len(accounts))
	for _, acc := range accounts {
		if acc == nil || acc.Account == nil {
			continue
		}
		decoded, err := DecodeProofAccount(acc.Account.Data.GetBinary())
		if err != nil {
			slog.Warn("skipping undecodable proof account", "address", acc.Pubkey.String(), "error", err)
			continue
		}
		out = append(out, ProofRecord{Address: acc.Pubkey.String(), Account: decoded})
	}
	return out, nil
}
