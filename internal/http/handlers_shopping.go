package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GET /api/shopping
func (s *Server) handleListShopping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Shopping.List(r.Context()))
}

// POST /api/shopping/items
func (s *Server) handleAddShoppingItem(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Shopping.AddItem(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// PUT /api/shopping/items/{id}
func (s *Server) handleUpdateShoppingItem(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Shopping.UpdateItem(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// POST /api/shopping/items/{id}/toggle
func (s *Server) handleToggleShoppingItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.Shopping.ToggleItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DELETE /api/shopping/items/{id}
func (s *Server) handleRemoveShoppingItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Shopping.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
