package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jacobneff/scorebugger/services"
)

type FormatHandler struct {
	formatService services.FormatService
}

func NewFormatHandler(fs services.FormatService) *FormatHandler {
	return &FormatHandler{formatService: fs}
}

func (h *FormatHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	formats := h.formatService.List(r.Context())
	if err := writeJSON(w, http.StatusOK, jsonResponse{"formats": formats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FormatHandler) GetFormat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formatID")
	format, err := h.formatService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"format": format}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SuggestFormats filters the catalogue to formats compatible with the
// team and court counts given as query parameters.
func (h *FormatHandler) SuggestFormats(w http.ResponseWriter, r *http.Request) {
	teamCount, err := strconv.Atoi(r.URL.Query().Get("teams"))
	if err != nil || teamCount < 1 {
		badRequestResponse(w, r, errInvalidQuery("teams"))
		return
	}
	courtCount, err := strconv.Atoi(r.URL.Query().Get("courts"))
	if err != nil || courtCount < 1 {
		badRequestResponse(w, r, errInvalidQuery("courts"))
		return
	}

	formats := h.formatService.Suggest(r.Context(), teamCount, courtCount)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"formats": formats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
