package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/batch"
	"github.com/spigell/cv-screener/internal/filtering"
	"github.com/spigell/cv-screener/internal/matching"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/records"
)

type parseRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type matchRequest struct {
	Job        *records.JobProfile  `json:"job"`
	JobText    string               `json:"job_text"`
	Candidates []*records.Candidate `json:"candidates"`
	MinScore   *int                 `json:"min_score"`
	MaxResults *int                 `json:"max_results"`
}

type authenticityRequest struct {
	Text      string             `json:"text"`
	Candidate *records.Candidate `json:"candidate"`
	JobText   string             `json:"job_text"`
	Quick     bool               `json:"quick"`
}

type bulkRequest struct {
	Kind  string `json:"kind"`
	Items []struct {
		File string `json:"file"`
		Text string `json:"text"`
	} `json:"items"`
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": msg})
}

func (s *Server) handleParse(c *fiber.Ctx) error {
	return s.parse(c, ai.KindResume)
}

func (s *Server) handleAnalyzeJob(c *fiber.Ctx) error {
	return s.parse(c, ai.KindJob)
}

func (s *Server) parse(c *fiber.Ctx, kind ai.Kind) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request payload")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	out, err := s.deps.Parser.Run(c.UserContext(), kind, req.Text)
	if err != nil {
		return s.pipelineError(c, err)
	}

	var record any = out.Candidate
	if kind == ai.KindJob {
		record = out.Job
	} else if out.Candidate != nil && req.Source != "" {
		out.Candidate.Source = req.Source
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"status":            out.Status,
		"record":            record,
		"confidence":        out.Confidence,
		"validationSummary": out.Summary,
		"warnings":          out.Warnings,
		"provider":          out.Provider,
		"request_id":        out.RequestID,
	})
}

func (s *Server) pipelineError(c *fiber.Ctx, err error) error {
	var failed *pipeline.AllParsersFailedError
	switch {
	case errors.Is(err, ai.ErrTooShort):
		return badRequest(c, err.Error())
	case errors.As(err, &failed):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success":  false,
			"error":    failed.Error(),
			"guidance": failed.Guidance,
		})
	default:
		s.logger.Error("pipeline failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "parsing failed")
	}
}

func (s *Server) handleMatch(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request payload")
	}
	if len(req.Candidates) == 0 {
		return badRequest(c, "candidates are required")
	}

	job := req.Job
	if job == nil {
		if strings.TrimSpace(req.JobText) == "" {
			return badRequest(c, "job or job_text is required")
		}
		out, err := s.deps.Parser.Run(c.UserContext(), ai.KindJob, req.JobText)
		if err != nil {
			return s.pipelineError(c, err)
		}
		job = out.Job
	}

	cfg := s.deps.Filters
	if req.MinScore != nil {
		cfg.MinScore = *req.MinScore
	}
	if req.MaxResults != nil {
		cfg.MaxResults = *req.MaxResults
	}

	ranked := s.deps.Matcher.ScoreAll(req.Candidates, job)
	filtered, err := filtering.Run(c.UserContext(), &cfg, filtering.Deps{Logger: s.logger}, filtering.Default(), &filtering.Matches{Items: ranked})
	if err != nil {
		return badRequest(c, err.Error())
	}

	results := filtered.Items
	if results == nil {
		results = []matching.Result{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"job":     job,
		"data":    results,
		"total":   len(ranked),
	})
}

func (s *Server) handleAuthenticity(c *fiber.Ctx) error {
	if s.deps.Authenticity == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "authenticity analysis is not configured")
	}

	var req authenticityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request payload")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	candidate := req.Candidate
	if candidate == nil {
		out, err := s.deps.Parser.Run(c.UserContext(), ai.KindResume, req.Text)
		if err != nil {
			return s.pipelineError(c, err)
		}
		candidate = out.Candidate
	}

	if req.Quick {
		return c.JSON(fiber.Map{"success": true, "data": s.deps.Authenticity.QuickCheck(c.UserContext(), req.Text, candidate)})
	}
	return c.JSON(fiber.Map{"success": true, "data": s.deps.Authenticity.Analyze(c.UserContext(), req.Text, candidate, req.JobText)})
}

func (s *Server) handleBulk(c *fiber.Ctx) error {
	if s.deps.Batch == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "bulk parsing is not configured")
	}

	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request payload")
	}

	kind := ai.KindResume
	if req.Kind != "" {
		k, err := ai.ParseKind(req.Kind)
		if err != nil || k == ai.KindDepth {
			return badRequest(c, "kind must be resume or job")
		}
		kind = k
	}

	items := make([]batch.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, batch.Item{File: it.File, Text: it.Text})
	}

	rep, err := s.deps.Batch.Run(c.UserContext(), kind, items)
	if err != nil {
		if errors.Is(err, batch.ErrNoItems) || errors.Is(err, batch.ErrTooManyItems) {
			return badRequest(c, err.Error())
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": rep})
}
