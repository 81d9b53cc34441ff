package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/citylink/citylink/internal/store"
	"github.com/gorilla/mux"
)

// AdminHandler serves the user-management surface. Routes are mounted
// behind both the session and admin gates.
type AdminHandler struct {
	Store store.Store
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type adminUserRequest struct {
	Username     string `json:"username"`
	FavoriteCity string `json:"favorite_city"`
	IsAdmin      bool   `json:"is_admin"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	var req adminUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	if err := h.Store.UpdateUser(userID, req.Username, req.FavoriteCity, req.IsAdmin); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	if err := h.Store.DeleteUser(userID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
