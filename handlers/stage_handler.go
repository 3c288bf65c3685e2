package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jacobneff/scorebugger/live"
	"github.com/jacobneff/scorebugger/services"
)

type StageHandler struct {
	stageService services.StageService
	poolService  services.PoolService
	hub          *live.Hub
}

func NewStageHandler(ss services.StageService, ps services.PoolService, hub *live.Hub) *StageHandler {
	return &StageHandler{stageService: ss, poolService: ps, hub: hub}
}

type applyFormatInput struct {
	FormatID string `json:"format_id"`
	CourtIDs []int  `json:"court_ids"`
}

func (h *StageHandler) ApplyFormat(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input applyFormatInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.FormatID == "" {
		badRequestResponse(w, r, errors.New("format_id is required"))
		return
	}
	if len(input.CourtIDs) == 0 {
		badRequestResponse(w, r, errors.New("court_ids is required"))
		return
	}

	tournament, err := h.stageService.ApplyFormat(r.Context(), tournamentID, input.FormatID, input.CourtIDs, forceParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) GeneratePools(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	pools, err := h.stageService.GeneratePools(r.Context(), tournamentID, stageKey, forceParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.hub.Broadcast(tournamentID, live.Event{
		Type:    live.EventPoolsGenerated,
		Payload: map[string]interface{}{"stage_key": stageKey, "count": len(pools)},
	})

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"pools": pools}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	pools, err := h.stageService.ListPools(r.Context(), tournamentID, stageKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"pools": pools}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type reassignPoolsInput struct {
	Pools []services.PoolAssignment `json:"pools"`
}

func (h *StageHandler) ReassignPools(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	var input reassignPoolsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Pools) == 0 {
		badRequestResponse(w, r, errors.New("pools is required"))
		return
	}

	pools, err := h.poolService.ReassignPools(r.Context(), tournamentID, stageKey, input.Pools)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.hub.Broadcast(tournamentID, live.Event{
		Type:    live.EventPoolsReassigned,
		Payload: map[string]interface{}{"stage_key": stageKey},
	})

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pools": pools}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type rankOverrideInput struct {
	TeamIDs []int `json:"team_ids"`
}

// SetRankOverride records or clears an operator-decided pool ranking.
func (h *StageHandler) SetRankOverride(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	poolID, err := idParam(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input rankOverrideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pool, err := h.poolService.SetManualRankOverride(r.Context(), tournamentID, poolID, input.TeamIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"pool": pool}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
