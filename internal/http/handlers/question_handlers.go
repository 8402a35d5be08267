package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/domain"
	httpx "github.com/you/qnaforum/internal/http/httpx"
	"github.com/you/qnaforum/internal/http/middleware"
)

// QuestionHandlers handles question HTTP requests
type QuestionHandlers struct {
	questions domain.QuestionRepository
	answers   domain.AnswerRepository
}

// NewQuestionHandlers creates new question handlers
func NewQuestionHandlers(questions domain.QuestionRepository, answers domain.AnswerRepository) *QuestionHandlers {
	return &QuestionHandlers{questions: questions, answers: answers}
}

// CreateQuestionRequest represents question creation request
type CreateQuestionRequest struct {
	Title   string `json:"title" binding:"required,min=10,max=200"`
	Content string `json:"content" binding:"required,min=20"`
}

// Create handles question creation
func (h *QuestionHandlers) Create(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := middleware.CurrentAccount(c)
	question := &domain.Question{
		AuthorID: account.ID,
		Title:    req.Title,
		Content:  req.Content,
		Status:   domain.QuestionPending,
	}
	if err := h.questions.Create(c.Request.Context(), question); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": questionPayload(question)})
}

// List returns a page of questions, newest first.
func (h *QuestionHandlers) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	questions, total, err := h.questions.List(c.Request.Context(), (page-1)*limit, limit)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	items := make([]gin.H, 0, len(questions))
	for i := range questions {
		items = append(items, questionPayload(&questions[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": items,
		"meta": gin.H{"page": page, "limit": limit, "total": total},
	})
}

// Get returns a single question with its approved answers. Unapproved
// answers are visible only to their author and to admins.
func (h *QuestionHandlers) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}

	question, err := h.questions.FindByID(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	answers, err := h.answers.ListByQuestion(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	viewer := middleware.CurrentAccount(c)
	visible := make([]gin.H, 0, len(answers))
	for i := range answers {
		a := &answers[i]
		if a.IsApproved || canSeeUnapproved(viewer, a) {
			visible = append(visible, answerPayload(a))
		}
	}

	payload := questionPayload(question)
	payload["answers"] = visible
	c.JSON(http.StatusOK, gin.H{"data": payload})
}

func canSeeUnapproved(viewer *domain.Account, answer *domain.Answer) bool {
	if viewer == nil {
		return false
	}
	return viewer.Role == domain.RoleAdmin || viewer.ID == answer.ExpertID
}

func parseID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	return uint(id), err
}

func questionPayload(q *domain.Question) gin.H {
	return gin.H{
		"id":                  q.ID,
		"author_id":           q.AuthorID,
		"title":               q.Title,
		"content":             q.Content,
		"status":              q.Status,
		"has_accepted_answer": q.HasAcceptedAnswer,
		"answers_count":       q.AnswersCount,
		"created_at":          q.CreatedAt,
	}
}

func answerPayload(a *domain.Answer) gin.H {
	payload := gin.H{
		"id":          a.ID,
		"question_id": a.QuestionID,
		"expert_id":   a.ExpertID,
		"content":     a.Content,
		"is_approved": a.IsApproved,
		"is_accepted": a.IsAccepted,
		"likes":       a.Likes,
		"created_at":  a.CreatedAt,
	}
	if len(a.SocialPosts) > 0 {
		posts := make([]gin.H, 0, len(a.SocialPosts))
		for _, p := range a.SocialPosts {
			posts = append(posts, gin.H{"channel": p.Channel, "external_id": p.ExternalID, "posted_at": p.PostedAt})
		}
		payload["social_posts"] = posts
	}
	return payload
}
