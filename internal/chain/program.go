// Package chain talks to the Ghonsi Proof Anchor program on Solana.
package chain

import (
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// MetadataProgramID is the Metaplex token metadata program.
var MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

const maxSeedLen = 32

var ErrSeedTooLong = errors.New("chain: proof id longer than 32 bytes")

// ProofSeed returns the seed bytes for a proof id. UUIDs exceed the seed limit
// and are used in their 32-character hex form.
func ProofSeed(proofID string) ([]byte, error) {
	if len(proofID) <= maxSeedLen {
		return []byte(proofID), nil
	}
	if id, err := uuid.Parse(proofID); err == nil {
		return []byte(strings.ReplaceAll(id.String(), "-", "")), nil
	}
	return nil, ErrSeedTooLong
}

func ProgramAuthorityPDA(program solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("program_authority")}, program)
	return pda, err
}

func MintAuthorityPDA(program solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("authority")}, program)
	return pda, err
}

// ProofRecordPDA addresses a proof written by submit_proof: ["proof", user, proof id].
func ProofRecordPDA(program, user solana.PublicKey, proofID string) (solana.PublicKey, error) {
	seed, err := ProofSeed(proofID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("proof"), user.Bytes(), seed}, program)
	return pda, err
}

// MintedProofPDA addresses a proof written by mint_proof: ["proof", owner, mint].
func MintedProofPDA(program, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("proof"), owner.Bytes(), mint.Bytes()}, program)
	return pda, err
}

func MetadataPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), MetadataProgramID.Bytes(), mint.Bytes()},
		MetadataProgramID,
	)
	return pda, err
}

func TokenAccountPDA(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), solana.TokenProgramID.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	return pda, err
}
