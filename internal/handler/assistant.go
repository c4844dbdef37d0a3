package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// AskRequest is the body of POST /ask_ai.
type AskRequest struct {
	Question string `json:"question"`
}

// ItineraryRequest is the optional body of POST /trips/{tripIndex}/itinerary.
type ItineraryRequest struct {
	ExtraInstructions string `json:"extra_instructions,omitempty"`
}

// AnswerResponse is returned when the assistant replied.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// UpstreamErrorResponse is returned, still with HTTP 200, when the upstream
// call failed. Status is null when no HTTP response was received.
type UpstreamErrorResponse struct {
	Error  string `json:"error"`
	Status *int   `json:"status"`
	Body   string `json:"body"`
}

// AskAI handles POST /ask_ai.
func (s *Server) AskAI(w http.ResponseWriter, r *http.Request) {
	var body AskRequest
	if err := decodeJSON(r, &body); err != nil {
		rejectBody(w, err, http.StatusBadRequest, codeBadRequest)
		return
	}

	result, err := s.assistant.Ask(r.Context(), body.Question)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, codeBadRequest, unwrapMessage(err, domain.ErrValidation))
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeAskResult(w, result)
}

// PlanItinerary handles POST /trips/{tripIndex}/itinerary.
// The body is optional; an empty body means no extra instructions.
func (s *Server) PlanItinerary(w http.ResponseWriter, r *http.Request) {
	tripIndex, err := indexParam(r, "tripIndex")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}
	var body ItineraryRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, errBodyRequired) {
		rejectBody(w, err, http.StatusBadRequest, codeBadRequest)
		return
	}

	result, err := s.assistant.Itinerary(r.Context(), tripIndex, body.ExtraInstructions)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			notFound(w, err)
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeAskResult(w, result)
}

// writeAskResult renders either shape of domain.AskResult with HTTP 200.
func writeAskResult(w http.ResponseWriter, result domain.AskResult) {
	if result.Failed() {
		writeJSON(w, http.StatusOK, UpstreamErrorResponse{
			Error:  result.Error,
			Status: result.Status,
			Body:   result.Body,
		})
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Answer: result.Answer})
}
