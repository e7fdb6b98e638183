package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liao/quimicai/internal/assistant"
	"github.com/liao/quimicai/internal/corpus"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string            `json:"answer"`
	Sources []corpus.Metadata `json:"sources"`
}

type healthResponse struct {
	Status         string `json:"status"`
	AssistantReady bool   `json:"assistant_ready"`
	CorpusUnits    int    `json:"corpus_units"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("bad ask request", "error", err, "request_id", c.GetString(requestIDKey))
		respondError(c, http.StatusBadRequest, msgNoQuestion)
		return
	}

	ans, err := s.asker.Ask(c.Request.Context(), req.Question)
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		respondError(c, http.StatusBadRequest, msgNoQuestion)
		return
	case err != nil:
		slog.Error("ask failed", "error", err, "request_id", c.GetString(requestIDKey))
		respondError(c, http.StatusInternalServerError, msgAskFailed)
		return
	}

	respondOK(c, askResponse{
		Answer:  ans.Text,
		Sources: ans.Sources(),
	})
}

func (s *Server) health(c *gin.Context) {
	respondOK(c, healthResponse{
		Status:         "ok",
		AssistantReady: s.asker.Ready(),
		CorpusUnits:    s.corpusUnits,
	})
}
