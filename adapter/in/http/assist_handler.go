package http

import (
	"fmt"

	"mailassist_server/core/domain"
	"mailassist_server/core/port/in"
	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const msgInvalidBody = "invalid request body"

// AssistHandler serves the summarize, smart reply, search and correction
// endpoints.
type AssistHandler struct {
	replies    in.ReplyService
	summaries  in.SummaryService
	search     in.SearchService
	correction in.CorrectionService
}

func NewAssistHandler(
	replies in.ReplyService,
	summaries in.SummaryService,
	search in.SearchService,
	correction in.CorrectionService,
) *AssistHandler {
	return &AssistHandler{
		replies:    replies,
		summaries:  summaries,
		search:     search,
		correction: correction,
	}
}

func (h *AssistHandler) Register(app fiber.Router) {
	app.Post("/summarize", h.Summarize)

	api := app.Group("/api")
	api.Post("/smart-reply", h.SmartReply)
	api.Post("/ai-assistant", h.Assistant)
	api.Post("/correct-reply", h.CorrectReply)
}

type textRequest struct {
	Text string `json:"text"`
}

type smartReplyRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone"`
}

type assistantRequest struct {
	Query  string         `json:"query"`
	Emails []domain.Email `json:"emails"`
}

func (h *AssistHandler) Summarize(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest(msgInvalidBody)
	}

	summary, err := h.summaries.Summarize(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// SmartReply answers 400 only for missing text. Any other failure, panics
// included, still yields a generic reply.
func (h *AssistHandler) SmartReply(c *fiber.Ctx) (err error) {
	var req smartReplyRequest
	if perr := c.BodyParser(&req); perr != nil {
		return apperr.BadRequest(msgInvalidBody)
	}
	tone := domain.Tone(req.Tone)
	log := logger.WithContext(c.UserContext())

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprintf("%v", r)).Error("smart reply panicked, sending generic reply")
			err = h.sendReply(c, h.replies.Fallback(tone))
		}
	}()

	reply, err := h.replies.SmartReply(c.UserContext(), &domain.SmartReplyRequest{Text: req.Text, Tone: tone})
	if err != nil {
		if apperr.HasCode(err, apperr.CodeInvalidInput) {
			return err
		}
		log.WithError(err).Error("smart reply failed, sending generic reply")
		return h.sendReply(c, h.replies.Fallback(tone))
	}

	log.WithFields(map[string]any{
		"source":   reply.Source,
		"scenario": reply.Scenario,
	}).Debug("smart reply produced")
	return h.sendReply(c, reply.Text)
}

func (h *AssistHandler) sendReply(c *fiber.Ctx, text string) error {
	return c.JSON(fiber.Map{"replies": []string{text}})
}

func (h *AssistHandler) Assistant(c *fiber.Ctx) error {
	var req assistantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest(msgInvalidBody)
	}
	return c.JSON(h.search.Search(req.Query, req.Emails))
}

// CorrectReply always answers 200; an unreadable body corrects nothing.
func (h *AssistHandler) CorrectReply(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(fiber.Map{"corrected": ""})
	}
	return c.JSON(fiber.Map{"corrected": h.correction.Correct(c.UserContext(), req.Text)})
}
