package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/qnaforum/domain"
)

// AnswerRepositoryImpl implements domain.AnswerRepository using GORM
type AnswerRepositoryImpl struct {
	db *gorm.DB
}

// DBAnswer represents the database model for Answer (with GORM tags)
type DBAnswer struct {
	ID                uint `gorm:"primaryKey"`
	QuestionID        uint `gorm:"index;uniqueIndex:idx_answers_question_expert"`
	ExpertID          uint `gorm:"index;uniqueIndex:idx_answers_question_expert"`
	Content           string
	IsApproved        bool `gorm:"index"`
	IsAccepted        bool
	ModeratedBy       *uint
	ModeratedAt       *time.Time
	ModerationComment string `gorm:"size:1024"`
	Likes             int
	Version           int `gorm:"default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the table name for GORM
func (DBAnswer) TableName() string {
	return "answers"
}

// DBSocialPost represents an external-mirror reference
type DBSocialPost struct {
	ID         uint   `gorm:"primaryKey"`
	AnswerID   uint   `gorm:"index"`
	Channel    string `gorm:"size:64"`
	ExternalID string `gorm:"size:255"`
	PostedAt   time.Time
}

// TableName returns the table name for GORM
func (DBSocialPost) TableName() string {
	return "social_posts"
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *gorm.DB) domain.AnswerRepository {
	return &AnswerRepositoryImpl{db: db}
}

// Create implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) Create(ctx context.Context, answer *domain.Answer) error {
	dbAnswer := &DBAnswer{
		QuestionID: answer.QuestionID,
		ExpertID:   answer.ExpertID,
		Content:    answer.Content,
	}
	if err := r.db.WithContext(ctx).Create(dbAnswer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateAnswer
		}
		return err
	}
	*answer = *r.dbToDomain(dbAnswer, nil)
	return nil
}

// FindByID implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Answer, error) {
	var dbAnswer DBAnswer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbAnswer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAnswerNotFound
		}
		return nil, err
	}

	posts, err := r.socialPosts(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.dbToDomain(&dbAnswer, posts), nil
}

// FindByQuestionAndExpert implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) FindByQuestionAndExpert(ctx context.Context, questionID, expertID uint) (*domain.Answer, error) {
	var dbAnswer DBAnswer
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND expert_id = ?", questionID, expertID).
		First(&dbAnswer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAnswerNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAnswer, nil), nil
}

// ListByQuestion implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) ListByQuestion(ctx context.Context, questionID uint) ([]domain.Answer, error) {
	var rows []DBAnswer
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	answers := make([]domain.Answer, 0, len(rows))
	for i := range rows {
		posts, err := r.socialPosts(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *r.dbToDomain(&rows[i], posts))
	}
	return answers, nil
}

// UpdateModerated implements domain.AnswerRepository. The version guard
// serializes moderation transitions per answer: the losing writer of a
// concurrent pair gets ErrReviewConflict instead of silently double
// adjusting the aggregates.
func (r *AnswerRepositoryImpl) UpdateModerated(ctx context.Context, answer *domain.Answer) (*domain.Answer, error) {
	res := r.db.WithContext(ctx).Model(&DBAnswer{}).
		Where("id = ? AND version = ?", answer.ID, answer.Version).
		UpdateColumns(map[string]any{
			"content":            answer.Content,
			"is_approved":        answer.IsApproved,
			"is_accepted":        answer.IsAccepted,
			"moderated_by":       answer.ModeratedBy,
			"moderated_at":       answer.ModeratedAt,
			"moderation_comment": answer.ModerationComment,
			"version":            gorm.Expr("version + ?", 1),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a vanished row from a lost race.
		var exists int64
		if err := r.db.WithContext(ctx).Model(&DBAnswer{}).
			Where("id = ?", answer.ID).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, domain.ErrAnswerNotFound
		}
		return nil, domain.ErrReviewConflict
	}
	return r.FindByID(ctx, answer.ID)
}

// Delete implements domain.AnswerRepository. Removing an approved answer
// recomputes the owning question's aggregate inside the same transaction,
// so a crash between the two writes cannot leave a stale count behind.
func (r *AnswerRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row DBAnswer
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAnswerNotFound
			}
			return err
		}
		if err := tx.Where("answer_id = ?", id).Delete(&DBSocialPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&DBAnswer{}).Error; err != nil {
			return err
		}
		if !row.IsApproved {
			return nil
		}

		var count int64
		if err := tx.Model(&DBAnswer{}).
			Where("question_id = ? AND is_approved = ?", row.QuestionID, true).
			Count(&count).Error; err != nil {
			return err
		}
		status := string(domain.QuestionPending)
		if count > 0 {
			status = string(domain.QuestionAnswered)
		}
		cols := map[string]any{
			"answers_count": count,
			"status":        status,
		}
		if row.IsAccepted {
			cols["has_accepted_answer"] = false
		}
		return tx.Model(&DBQuestion{}).Where("id = ?", row.QuestionID).
			UpdateColumns(cols).Error
	})
}

// AddLike implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) AddLike(ctx context.Context, id uint) (*domain.Answer, error) {
	res := r.db.WithContext(ctx).Model(&DBAnswer{}).Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrAnswerNotFound
	}
	return r.FindByID(ctx, id)
}

// AttachSocialPost implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) AttachSocialPost(ctx context.Context, post *domain.SocialPost) error {
	dbPost := &DBSocialPost{
		AnswerID:   post.AnswerID,
		Channel:    post.Channel,
		ExternalID: post.ExternalID,
		PostedAt:   post.PostedAt,
	}
	if err := r.db.WithContext(ctx).Create(dbPost).Error; err != nil {
		return err
	}
	post.ID = dbPost.ID
	return nil
}

// RemoveSocialPosts implements domain.AnswerRepository
func (r *AnswerRepositoryImpl) RemoveSocialPosts(ctx context.Context, answerID uint) error {
	return r.db.WithContext(ctx).Where("answer_id = ?", answerID).Delete(&DBSocialPost{}).Error
}

func (r *AnswerRepositoryImpl) socialPosts(ctx context.Context, answerID uint) ([]domain.SocialPost, error) {
	var rows []DBSocialPost
	err := r.db.WithContext(ctx).Where("answer_id = ?", answerID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	posts := make([]domain.SocialPost, 0, len(rows))
	for _, p := range rows {
		posts = append(posts, domain.SocialPost{
			ID:         p.ID,
			AnswerID:   p.AnswerID,
			Channel:    p.Channel,
			ExternalID: p.ExternalID,
			PostedAt:   p.PostedAt,
		})
	}
	return posts, nil
}

// dbToDomain converts database answer to domain answer
func (r *AnswerRepositoryImpl) dbToDomain(dbAnswer *DBAnswer, posts []domain.SocialPost) *domain.Answer {
	return &domain.Answer{
		ID:                dbAnswer.ID,
		QuestionID:        dbAnswer.QuestionID,
		ExpertID:          dbAnswer.ExpertID,
		Content:           dbAnswer.Content,
		IsApproved:        dbAnswer.IsApproved,
		IsAccepted:        dbAnswer.IsAccepted,
		ModeratedBy:       dbAnswer.ModeratedBy,
		ModeratedAt:       dbAnswer.ModeratedAt,
		ModerationComment: dbAnswer.ModerationComment,
		Likes:             dbAnswer.Likes,
		Version:           dbAnswer.Version,
		SocialPosts:       posts,
		CreatedAt:         dbAnswer.CreatedAt,
		UpdatedAt:         dbAnswer.UpdatedAt,
	}
}
