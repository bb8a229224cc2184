package api

import (
	"errors"
	"net/http"

	"inventory-marketplace/internal/auth"
	"inventory-marketplace/internal/domain"
)

// --- Auth Handlers ---

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	session, err := h.svc.Auth.Register(r.Context(), auth.RegisterRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, session)
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	session, err := h.svc.Auth.Login(r.Context(), auth.LoginRequest{Email: input.Email, Password: input.Password})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Auth.Me(r.Context(), principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// --- Admin Handlers ---

// ImportItems reads a multipart "file" field holding a CSV export and imports
// it for the calling admin.
func (h *HTTPHandler) ImportItems(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithError(w, r, domain.Validation("file", "upload is too large"))
			return
		}
		h.respondWithError(w, r, domain.Validation("file", "expected a multipart form upload"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondWithError(w, r, domain.Validation("file", "no file uploaded"))
		return
	}
	defer file.Close()

	result, err := h.svc.Importer.Import(r.Context(), principal(r).UserID, file)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
