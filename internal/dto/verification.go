package dto

type VerificationCreateRequest struct {
	ProofID       string `json:"proofId"`
	VerifierEmail string `json:"verifierEmail"`
	VerifierName  string `json:"verifierName,omitempty"`
	Relationship  string `json:"relationship,omitempty"`
	Message       string `json:"message,omitempty"`
}

type VerificationRespondRequest struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
}
