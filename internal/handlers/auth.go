package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/middleware"
	"github.com/citylink/citylink/internal/models"
	"github.com/citylink/citylink/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Store    store.Store
	Verifier *auth.Verifier
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	FavoriteCity string `json:"favorite_city"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	if _, err := h.Store.GetUserByEmail(req.Email); err == nil {
		respondError(w, http.StatusConflict, "validation_error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FavoriteCity: req.FavoriteCity,
		PasswordHash: string(hash),
	}
	if err := h.Store.CreateUser(user); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	user, err := h.Store.GetUserByEmail(creds.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_credential")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_credential")
		return
	}

	identity := models.Identity{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
	token, err := h.Verifier.SignSession(identity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Me re-reads the user from the store so profile edits made after the
// session token was issued are reflected.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	user, err := h.Store.GetUserByID(identity.ID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type profileRequest struct {
	Username     string `json:"username"`
	FavoriteCity string `json:"favorite_city"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	if err := h.Store.UpdateProfile(identity.ID, req.Username, req.FavoriteCity); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	user, err := h.Store.GetUserByID(identity.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AuthHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	if err := h.Store.DeleteUser(identity.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// GenerateAPIToken creates or regenerates the caller's personal API
// token. Regeneration overwrites the previous token; the full secret is
// returned here and never again.
func (h *AuthHandler) GenerateAPIToken(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	token, err := auth.NewAPIToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if err := h.Store.SetAPIToken(identity.ID, token); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"api_token": token})
}

// APITokenInfo reports whether a token exists, in masked form only.
func (h *AuthHandler) APITokenInfo(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	user, err := h.Store.GetUserByID(identity.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if user.APIToken == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"has_token": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"has_token":    true,
		"masked_token": auth.MaskAPIToken(user.APIToken),
	})
}
