package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/domain"
	httpx "github.com/you/qnaforum/internal/http/httpx"
	"github.com/you/qnaforum/internal/http/middleware"
)

// AnswerHandlers handles answer submission and moderation HTTP requests
type AnswerHandlers struct {
	moderationSvc domain.ModerationService
}

// NewAnswerHandlers creates new answer handlers
func NewAnswerHandlers(moderationSvc domain.ModerationService) *AnswerHandlers {
	return &AnswerHandlers{moderationSvc: moderationSvc}
}

// SubmitAnswerRequest represents answer submission request
type SubmitAnswerRequest struct {
	Content string `json:"content" binding:"required,min=20"`
}

// ReviewRequest carries an optional moderation comment
type ReviewRequest struct {
	Comment string `json:"comment,omitempty"`
}

// EditAnswerRequest represents answer edit request
type EditAnswerRequest struct {
	Content string `json:"content" binding:"required,min=20"`
}

// Submit handles answer submission by an expert
func (h *AnswerHandlers) Submit(c *gin.Context) {
	questionID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.moderationSvc.Submit(c.Request.Context(), middleware.CurrentAccount(c), questionID, req.Content)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": answerPayload(answer)})
}

// Approve handles answer approval by a moderator
func (h *AnswerHandlers) Approve(c *gin.Context) {
	h.review(c, h.moderationSvc.Approve)
}

// Reject handles answer rejection by a moderator
func (h *AnswerHandlers) Reject(c *gin.Context) {
	h.review(c, h.moderationSvc.Reject)
}

func (h *AnswerHandlers) review(c *gin.Context, transition func(ctx context.Context, moderator *domain.Account, answerID uint, comment string) (*domain.ModerationOutcome, error)) {
	answerID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer id"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := transition(c.Request.Context(), middleware.CurrentAccount(c), answerID, req.Comment)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcomePayload(outcome)})
}

// Accept handles acceptance of an approved answer by the question author
func (h *AnswerHandlers) Accept(c *gin.Context) {
	answerID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer id"})
		return
	}

	outcome, err := h.moderationSvc.Accept(c.Request.Context(), middleware.CurrentAccount(c), answerID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcomePayload(outcome)})
}

// Edit handles answer edits by the owning expert or an admin
func (h *AnswerHandlers) Edit(c *gin.Context) {
	answerID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer id"})
		return
	}

	var req EditAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.moderationSvc.Edit(c.Request.Context(), middleware.CurrentAccount(c), answerID, req.Content)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcomePayload(outcome)})
}

// Delete handles answer deletion
func (h *AnswerHandlers) Delete(c *gin.Context) {
	answerID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer id"})
		return
	}

	if err := h.moderationSvc.Delete(c.Request.Context(), middleware.CurrentAccount(c), answerID); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Answer deleted"}})
}

// Like increments an answer's like counter
func (h *AnswerHandlers) Like(c *gin.Context) {
	answerID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer id"})
		return
	}

	answer, err := h.moderationSvc.Like(c.Request.Context(), answerID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": answerPayload(answer)})
}

func outcomePayload(o *domain.ModerationOutcome) gin.H {
	payload := gin.H{"answer": answerPayload(o.Answer)}
	if o.Question != nil {
		payload["question"] = questionPayload(o.Question)
	}
	if o.MirrorWarning != "" {
		payload["warning"] = o.MirrorWarning
	}
	return payload
}
