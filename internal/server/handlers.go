package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/jobs"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/moderation"
	"github.com/AdelinaPatlatii/SmartLibrarian/internal/recommend"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer  string `json:"answer"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	Blocked bool   `json:"blocked"`
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"answer": "Întrebare goală."})
	}

	reply, err := s.service.Chat(c.Request().Context(), question)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		switch {
		case errors.Is(err, moderation.ErrUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "moderation unavailable")
		case errors.Is(err, recommend.ErrGeneration):
			return echo.NewHTTPError(http.StatusBadGateway, "recommendation failed")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, chatResponse{
		Answer:  reply.Answer,
		Title:   reply.Title,
		Summary: reply.Summary,
		Blocked: reply.Blocked,
	})
}

type ttsRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

func (s *Server) tts(c echo.Context) error {
	var req ttsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}

	jobID := uuid.NewString()
	s.service.DispatchSpeech(req.Text, req.Title)
	url := "/" + jobs.OutputName(jobs.KindSpeech, req.Title)
	s.logger.Info("accepted speech job", zap.String("job_id", jobID), zap.String("url", url))
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID, "url": url})
}

type imageRequest struct {
	Title string `json:"title"`
}

func (s *Server) image(c echo.Context) error {
	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}
	summary, ok := s.service.SummaryByTitle(req.Title)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown title"})
	}

	jobID := uuid.NewString()
	s.service.DispatchImage(req.Title, summary)
	url := "/" + jobs.OutputName(jobs.KindImage, req.Title)
	s.logger.Info("accepted image job", zap.String("job_id", jobID), zap.String("url", url))
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID, "url": url})
}

func (s *Server) stt(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "audio file is required"})
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	text, err := s.service.Transcribe(c.Request().Context(), src, file.Filename, c.FormValue("language"))
	if err != nil {
		s.logger.Error("transcription failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "transcription failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"text": text})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
