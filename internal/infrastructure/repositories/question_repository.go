package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/qnaforum/domain"
)

// QuestionRepositoryImpl implements domain.QuestionRepository using GORM
type QuestionRepositoryImpl struct {
	db *gorm.DB
}

// DBQuestion represents the database model for Question (with GORM tags)
type DBQuestion struct {
	ID                uint   `gorm:"primaryKey"`
	AuthorID          uint   `gorm:"index"`
	Title             string `gorm:"size:512"`
	Content           string
	Status            string `gorm:"index;size:32;default:pending"`
	HasAcceptedAnswer bool
	AnswersCount      int
	CreatedAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time
}

// TableName returns the table name for GORM
func (DBQuestion) TableName() string {
	return "questions"
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *gorm.DB) domain.QuestionRepository {
	return &QuestionRepositoryImpl{db: db}
}

// Create implements domain.QuestionRepository
func (r *QuestionRepositoryImpl) Create(ctx context.Context, question *domain.Question) error {
	dbQuestion := &DBQuestion{
		AuthorID: question.AuthorID,
		Title:    question.Title,
		Content:  question.Content,
		Status:   string(domain.QuestionPending),
	}
	if err := r.db.WithContext(ctx).Create(dbQuestion).Error; err != nil {
		return err
	}
	*question = *r.dbToDomain(dbQuestion)
	return nil
}

// FindByID implements domain.QuestionRepository
func (r *QuestionRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Question, error) {
	var dbQuestion DBQuestion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbQuestion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbQuestion), nil
}

// List implements domain.QuestionRepository
func (r *QuestionRepositoryImpl) List(ctx context.Context, offset, limit int) ([]domain.Question, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&DBQuestion{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []DBQuestion
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	questions := make([]domain.Question, 0, len(rows))
	for i := range rows {
		questions = append(questions, *r.dbToDomain(&rows[i]))
	}
	return questions, total, nil
}

// RecountAnswers implements domain.QuestionRepository. The count is taken
// from the current approved-answer set inside one transaction, never
// derived from a decrement, so repeated reject/approve cycles cannot
// drift the aggregate.
func (r *QuestionRepositoryImpl) RecountAnswers(ctx context.Context, id uint) (*domain.Question, error) {
	var out *domain.Question
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&DBAnswer{}).
			Where("question_id = ? AND is_approved = ?", id, true).
			Count(&count).Error; err != nil {
			return err
		}

		status := string(domain.QuestionPending)
		if count > 0 {
			status = string(domain.QuestionAnswered)
		}

		res := tx.Model(&DBQuestion{}).Where("id = ?", id).
			UpdateColumns(map[string]any{
				"answers_count": count,
				"status":        status,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrQuestionNotFound
		}

		var dbQuestion DBQuestion
		if err := tx.Where("id = ?", id).First(&dbQuestion).Error; err != nil {
			return err
		}
		out = r.dbToDomain(&dbQuestion)
		return nil
	})
	return out, err
}

// MarkAccepted implements domain.QuestionRepository. The conditional
// update is the arbiter for concurrent accept attempts: exactly one caller
// observes a flipped row.
func (r *QuestionRepositoryImpl) MarkAccepted(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&DBQuestion{}).
		Where("id = ? AND has_accepted_answer = ?", id, false).
		UpdateColumns(map[string]any{
			"has_accepted_answer": true,
			"status":              string(domain.QuestionAnswered),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClearAcceptance implements domain.QuestionRepository
func (r *QuestionRepositoryImpl) ClearAcceptance(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBQuestion{}).Where("id = ?", id).
		UpdateColumn("has_accepted_answer", false).Error
}

// dbToDomain converts database question to domain question
func (r *QuestionRepositoryImpl) dbToDomain(dbQuestion *DBQuestion) *domain.Question {
	return &domain.Question{
		ID:                dbQuestion.ID,
		AuthorID:          dbQuestion.AuthorID,
		Title:             dbQuestion.Title,
		Content:           dbQuestion.Content,
		Status:            domain.QuestionStatus(dbQuestion.Status),
		HasAcceptedAnswer: dbQuestion.HasAcceptedAnswer,
		AnswersCount:      dbQuestion.AnswersCount,
		CreatedAt:         dbQuestion.CreatedAt,
		UpdatedAt:         dbQuestion.UpdatedAt,
	}
}
