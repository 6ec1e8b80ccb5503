package chain

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

func discriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// InstructionDiscriminator is sha256("global:<name>")[:8].
func InstructionDiscriminator(name string) [8]byte { return discriminator("global", name) }

// AccountDiscriminator is sha256("account:<Name>")[:8].
func AccountDiscriminator(name string) [8]byte { return discriminator("account", name) }

type submitProofArgs struct {
	ProofID     string
	Title       string
	Description string
	ProofType   string
	URI         string
}

type mintProofArgs struct {
	ProofID     string
	Title       string
	URI         string
	Description string
	ProofType   string
}

// encodeInstruction prefixes borsh-encoded args with the instruction discriminator.
func encodeInstruction(name string, args any) ([]byte, error) {
	var buf bytes.Buffer
	disc := InstructionDiscriminator(name)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encode %s args: %w", name, err)
	}
	return buf.Bytes(), nil
}

const (
	ProofStatusPending uint8 = iota
	ProofStatusVerified
	ProofStatusRejected
)

// ProofAccount is the on-chain Proof account after the discriminator.
type ProofAccount struct {
	Mint             solana.PublicKey
	Owner            solana.PublicKey
	ProofID          string
	Title            string
	ProofType        string
	WorkDescription  string
	URI              string
	Status           uint8
	SubmissionDate   int64
	VerifiedBy       solana.PublicKey
	VerificationDate int64
	RejectionReason  string
}

func (p *ProofAccount) StatusName() string {
	switch p.Status {
	case ProofStatusPending:
		return "pending"
	case ProofStatusVerified:
		return "verified"
	case ProofStatusRejected:
		return "rejected"
	}
	return "unknown"
}

type programAuthority struct {
	PrimaryAdmin solana.PublicKey
}

var errDiscriminator = errors.New("chain: account discriminator mismatch")

func decodeAccount(name string, data []byte, v any) error {
	disc := AccountDiscriminator(name)
	if len(data) < 8 || !bytes.Equal(data[:8], disc[:]) {
		return errDiscriminator
	}
	return bin.NewBorshDecoder(data[8:]).Decode(v)
}

func DecodeProofAccount(data []byte) (*ProofAccount, error) {
	var out ProofAccount
	if err := decodeAccount("Proof", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ownerOffset is where Proof.owner starts: discriminator + mint.
const ownerOffset = 8 + 32
