package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/validate"
)

const multipartMemory = 32 << 20

// createProof accepts multipart form fields plus one "reference" file and any
// number of "supporting" files.
func (h *handler) createProof(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := pipeline.Input{
		UserID:        principal(r).UserID,
		ProofType:     strings.TrimSpace(r.FormValue("proofType")),
		ProofName:     strings.TrimSpace(r.FormValue("proofName")),
		Summary:       strings.TrimSpace(r.FormValue("summary")),
		ReferenceLink: strings.TrimSpace(r.FormValue("referenceLink")),
		WalletAddress: strings.TrimSpace(r.FormValue("walletAddress")),
	}
	for _, kind := range []string{domain.FileTypeReference, domain.FileTypeSupporting} {
		for _, fh := range r.MultipartForm.File[kind] {
			att, err := readAttachment(kind, fh)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			in.Attachments = append(in.Attachments, att)
		}
	}

	res, err := h.svc.Proofs.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func readAttachment(kind string, fh *multipart.FileHeader) (pipeline.Attachment, error) {
	if fh.Size > validate.MaxFileBytes {
		return pipeline.Attachment{}, fmt.Errorf("%s: File size must not exceed 10MB", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.Attachment{}, fmt.Errorf("%s: unreadable file", fh.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, validate.MaxFileBytes+1))
	if err != nil {
		return pipeline.Attachment{}, fmt.Errorf("%s: unreadable file", fh.Filename)
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return pipeline.Attachment{Kind: kind, Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

func (h *handler) listProofs(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Proofs.List(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) proofStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Proofs.Stats(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) getProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.svc.Proofs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) updateProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ProofPatchRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Proofs.Update(r.Context(), principal(r).UserID, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) deleteProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Proofs.Delete(r.Context(), principal(r).UserID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) proofChainStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.svc.Proofs.ChainStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) mintProof(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.MintRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Proofs.Mint(r.Context(), principal(r).UserID, id, strings.TrimSpace(req.WalletAddress))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if out.ChainStatus == domain.ChainStatusQueued {
		status = http.StatusAccepted
	}
	httpx.WriteJSON(w, status, out)
}

// submitProof keeps the JSON contract of POST /api/submit-proof.
func (h *handler) submitProof(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitProofRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Complete() {
		httpx.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	out, err := h.svc.Proofs.SubmitOnChain(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
