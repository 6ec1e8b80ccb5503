package ipfs

import "time"

const PlaceholderImage = "https://via.placeholder.com/500"

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// ProofMetadata is the NFT-style document pinned for every proof.
type ProofMetadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes"`
}

type MetadataInput struct {
	ProofID     string
	Title       string
	Description string
	ProofType   string
	Status      string
	ImageURL    string
	ExternalURL string
	SubmittedAt time.Time
}

func BuildProofMetadata(in MetadataInput) ProofMetadata {
	img := in.ImageURL
	if img == "" {
		img = PlaceholderImage
	}
	status := in.Status
	if status == "" {
		status = "Pending"
	}
	at := in.SubmittedAt
	if at.IsZero() {
		at = time.Now()
	}
	return ProofMetadata{
		Name:        in.Title,
		Description: in.Description,
		Image:       img,
		ExternalURL: in.ExternalURL,
		Attributes: []Attribute{
			{TraitType: "Proof ID", Value: in.ProofID},
			{TraitType: "Proof Type", Value: in.ProofType},
			{TraitType: "Status", Value: status},
			{TraitType: "Submission Date", Value: at.UTC().Format(time.RFC3339)},
		},
	}
}

// MetadataName is the pin name used for a proof's metadata document.
func MetadataName(proofID string) string { return proofID + "-metadata.json" }
