package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ai-mobility-planner/internal/app"
	"ai-mobility-planner/internal/planner"
	"ai-mobility-planner/internal/schedule"
)

// Server exposes the planning pipeline over HTTP.
type Server struct {
	app *app.App
}

// NewServer creates a new Server.
func NewServer(a *app.App) *Server {
	return &Server{app: a}
}

// GenerateRequest is the inbound API payload. CurrentDayIndex and Plans are
// optional resumption state from an earlier aborted run.
type GenerateRequest struct {
	UserDescription string               `json:"user_description"`
	RunID           string               `json:"run_id,omitempty"`
	CurrentDayIndex int                  `json:"current_day_index,omitempty"`
	Plans           []schedule.DailyPlan `json:"plans,omitempty"`
}

// ErrorResponse is the structured error payload. For aborted generation runs
// it carries the run ID and day index needed to resume.
type ErrorResponse struct {
	Error           string `json:"error"`
	RunID           string `json:"run_id,omitempty"`
	CurrentDayIndex int    `json:"current_day_index,omitempty"`
}

// RegisterHandlers registers the API routes on the given mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/generate-mobility-trace", s.handleGenerate)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.UserDescription == "" {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "user_description is required"})
		return
	}
	if req.CurrentDayIndex != len(req.Plans) {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "current_day_index must match the number of plans"})
		return
	}

	state := &planner.State{
		RunID:           req.RunID,
		UserDescription: req.UserDescription,
		CurrentDayIndex: req.CurrentDayIndex,
		Plans:           req.Plans,
	}

	mt, err := s.app.GenerateFromState(r.Context(), "api", state)
	if err != nil {
		var genErr *planner.GenerationError
		if errors.As(err, &genErr) {
			// The partial run is snapshotted; hand the caller what it
			// needs to resume.
			writeError(w, http.StatusBadGateway, ErrorResponse{
				Error:           err.Error(),
				RunID:           state.RunID,
				CurrentDayIndex: state.CurrentDayIndex,
			})
			return
		}
		log.Printf("Error generating trace: %v", err)
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mt); err != nil {
		log.Printf("Error encoding trace response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
