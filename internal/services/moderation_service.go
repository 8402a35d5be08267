package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/you/qnaforum/domain"
)

// ModerationConfig holds the tunables of the moderation state machine.
type ModerationConfig struct {
	// AcceptRatingBonus is added to the expert's rating when their
	// answer is accepted.
	AcceptRatingBonus int
	// GatewayTimeout bounds every external-mirror call.
	GatewayTimeout time.Duration
	// Channel names the external mirror channel on stored post refs.
	Channel string
}

// ModerationServiceImpl implements domain.ModerationService.
//
// Internal consistency changes (approval flag, counts, acceptance) either
// succeed or fail the whole operation. External-mirror calls are
// best-effort: a failure is logged and reported as a warning on the
// outcome, never rolled into the transition result. Whenever a transition
// can leave the question aggregate inconsistent, the aggregate is
// recomputed from the surviving approved-answer set instead of being
// decremented blindly.
type ModerationServiceImpl struct {
	answers   domain.AnswerRepository
	questions domain.QuestionRepository
	accounts  domain.AccountRepository
	publisher domain.SocialPublisher
	notifier  domain.NotificationService
	config    ModerationConfig
	log       *zap.Logger
}

// NewModerationService creates a new moderation service
func NewModerationService(
	answers domain.AnswerRepository,
	questions domain.QuestionRepository,
	accounts domain.AccountRepository,
	publisher domain.SocialPublisher,
	notifier domain.NotificationService,
	config ModerationConfig,
	log *zap.Logger,
) domain.ModerationService {
	return &ModerationServiceImpl{
		answers:   answers,
		questions: questions,
		accounts:  accounts,
		publisher: publisher,
		notifier:  notifier,
		config:    config,
		log:       log,
	}
}

// Submit implements domain.ModerationService. Answers start unapproved.
func (s *ModerationServiceImpl) Submit(ctx context.Context, expert *domain.Account, questionID uint, content string) (*domain.Answer, error) {
	if expert.Role != domain.RoleExpert && expert.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden.WithMessage("only experts may submit answers")
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.AuthorID == expert.ID {
		return nil, domain.ErrOwnQuestion
	}

	// Friendlier than the unique-index violation; the index still catches
	// a concurrent pair.
	existing, err := s.answers.FindByQuestionAndExpert(ctx, questionID, expert.ID)
	if err != nil && !errors.Is(err, domain.ErrAnswerNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateAnswer
	}

	answer := &domain.Answer{
		QuestionID: questionID,
		ExpertID:   expert.ID,
		Content:    content,
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}

	s.log.Info("answer submitted",
		zap.String("event", string(domain.AnswerSubmittedEvent)),
		zap.Uint("answer_id", answer.ID),
		zap.Uint("question_id", questionID),
		zap.Uint("expert_id", expert.ID))
	return answer, nil
}

// Approve implements domain.ModerationService: Pending -> Approved.
func (s *ModerationServiceImpl) Approve(ctx context.Context, moderator *domain.Account, answerID uint, comment string) (*domain.ModerationOutcome, error) {
	if err := s.requireModerator(moderator); err != nil {
		return nil, err
	}

	answer, err := s.answers.FindByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if answer.IsApproved {
		return nil, domain.ErrAlreadyReviewed.WithMessage("answer is already approved")
	}

	now := time.Now()
	answer.IsApproved = true
	answer.ModeratedBy = &moderator.ID
	answer.ModeratedAt = &now
	answer.ModerationComment = comment

	updated, err := s.answers.UpdateModerated(ctx, answer)
	if err != nil {
		return nil, err
	}

	question, err := s.questions.RecountAnswers(ctx, updated.QuestionID)
	if err != nil {
		// Roll the approval back so a retry replays the whole transition
		// instead of being rejected as already reviewed.
		s.revertApproval(ctx, updated)
		return nil, err
	}

	warning := s.publishMirror(question, updated)

	s.log.Info("answer approved",
		zap.String("event", string(domain.AnswerApprovedEvent)),
		zap.Uint("answer_id", updated.ID),
		zap.Uint("moderator_id", moderator.ID))
	s.notifyExpert(updated.ExpertID, domain.MailAnswerApproved, question.Title, comment)

	return &domain.ModerationOutcome{Answer: updated, Question: question, MirrorWarning: warning}, nil
}

// Reject implements domain.ModerationService: Pending -> Rejected or
// Approved -> Rejected (re-review). Rejecting a previously accepted answer
// always clears the question's acceptance flag before the recount.
func (s *ModerationServiceImpl) Reject(ctx context.Context, moderator *domain.Account, answerID uint, comment string) (*domain.ModerationOutcome, error) {
	if err := s.requireModerator(moderator); err != nil {
		return nil, err
	}

	answer, err := s.answers.FindByID(ctx, answerID)
	if err != nil {
		return nil, err
	}

	wasApproved := answer.IsApproved
	wasAccepted := answer.IsAccepted

	now := time.Now()
	answer.IsApproved = false
	answer.IsAccepted = false
	answer.ModeratedBy = &moderator.ID
	answer.ModeratedAt = &now
	answer.ModerationComment = comment

	updated, err := s.answers.UpdateModerated(ctx, answer)
	if err != nil {
		return nil, err
	}

	var question *domain.Question
	var warning string
	if wasApproved {
		if wasAccepted {
			if err := s.questions.ClearAcceptance(ctx, updated.QuestionID); err != nil {
				return nil, err
			}
		}
		question, err = s.questions.RecountAnswers(ctx, updated.QuestionID)
		if err != nil {
			return nil, err
		}
		warning = s.retractMirror(ctx, updated)
	} else {
		question, err = s.questions.FindByID(ctx, updated.QuestionID)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("answer rejected",
		zap.String("event", string(domain.AnswerRejectedEvent)),
		zap.Uint("answer_id", updated.ID),
		zap.Uint("moderator_id", moderator.ID),
		zap.Bool("was_approved", wasApproved))
	s.notifyExpert(updated.ExpertID, domain.MailAnswerRejected, question.Title, comment)

	return &domain.ModerationOutcome{Answer: updated, Question: question, MirrorWarning: warning}, nil
}

// Accept implements domain.ModerationService: Approved -> Accepted. The
// conditional aggregate flip arbitrates concurrent accepts; the loser gets
// a conflict.
func (s *ModerationServiceImpl) Accept(ctx context.Context, caller *domain.Account, answerID uint) (*domain.ModerationOutcome, error) {
	answer, err := s.answers.FindByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	question, err := s.questions.FindByID(ctx, answer.QuestionID)
	if err != nil {
		return nil, err
	}

	if question.AuthorID != caller.ID {
		return nil, domain.ErrNotQuestionAuthor
	}
	if !answer.IsApproved {
		return nil, domain.ErrNotApproved
	}
	if answer.IsAccepted {
		return nil, domain.ErrAlreadyAccepted
	}

	won, err := s.questions.MarkAccepted(ctx, question.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrAlreadyAccepted
	}

	answer.IsAccepted = true
	updated, err := s.answers.UpdateModerated(ctx, answer)
	if err != nil {
		// Compensate the aggregate flip so the question does not claim
		// an accepted answer that was never marked.
		if cerr := s.questions.ClearAcceptance(ctx, question.ID); cerr != nil {
			s.log.Error("failed to compensate acceptance flag",
				zap.Uint("question_id", question.ID), zap.Error(cerr))
		}
		return nil, err
	}

	if err := s.accounts.AddRating(ctx, updated.ExpertID, s.config.AcceptRatingBonus); err != nil {
		// Unwind the acceptance so a retry replays the whole transition,
		// rating bump included.
		revert := *updated
		revert.IsAccepted = false
		if _, rerr := s.answers.UpdateModerated(ctx, &revert); rerr != nil {
			s.log.Error("failed to revert acceptance after rating failure",
				zap.Uint("answer_id", updated.ID), zap.Error(rerr))
		}
		if cerr := s.questions.ClearAcceptance(ctx, question.ID); cerr != nil {
			s.log.Error("failed to compensate acceptance flag",
				zap.Uint("question_id", question.ID), zap.Error(cerr))
		}
		return nil, err
	}

	question, err = s.questions.FindByID(ctx, question.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("answer accepted",
		zap.String("event", string(domain.AnswerAcceptedEvent)),
		zap.Uint("answer_id", updated.ID),
		zap.Uint("question_id", question.ID),
		zap.Int("rating_bonus", s.config.AcceptRatingBonus))

	return &domain.ModerationOutcome{Answer: updated, Question: question}, nil
}

// Edit implements domain.ModerationService. An owner edit on an approved
// answer revokes the approval and retracts the mirror; an administrator
// edit replaces the content in place and republishes.
func (s *ModerationServiceImpl) Edit(ctx context.Context, caller *domain.Account, answerID uint, content string) (*domain.ModerationOutcome, error) {
	answer, err := s.answers.FindByID(ctx, answerID)
	if err != nil {
		return nil, err
	}

	switch {
	case caller.Role == domain.RoleAdmin:
		return s.adminEdit(ctx, answer, content)
	case caller.ID == answer.ExpertID:
		return s.ownerEdit(ctx, answer, content)
	default:
		return nil, domain.ErrForbidden.WithMessage("only the answer's expert or an administrator may edit it")
	}
}

func (s *ModerationServiceImpl) ownerEdit(ctx context.Context, answer *domain.Answer, content string) (*domain.ModerationOutcome, error) {
	wasApproved := answer.IsApproved
	wasAccepted := answer.IsAccepted

	answer.Content = content
	if wasApproved {
		// Back to pending: the edit must pass moderation again.
		answer.IsApproved = false
		answer.IsAccepted = false
		answer.ModeratedBy = nil
		answer.ModeratedAt = nil
		answer.ModerationComment = ""
	}

	updated, err := s.answers.UpdateModerated(ctx, answer)
	if err != nil {
		return nil, err
	}

	var question *domain.Question
	var warning string
	if wasApproved {
		if wasAccepted {
			if err := s.questions.ClearAcceptance(ctx, updated.QuestionID); err != nil {
				return nil, err
			}
		}
		question, err = s.questions.RecountAnswers(ctx, updated.QuestionID)
		if err != nil {
			return nil, err
		}
		warning = s.retractMirror(ctx, updated)
	} else {
		question, err = s.questions.FindByID(ctx, updated.QuestionID)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("answer edited by owner",
		zap.String("event", string(domain.AnswerEditedEvent)),
		zap.Uint("answer_id", updated.ID),
		zap.Bool("approval_revoked", wasApproved))

	return &domain.ModerationOutcome{Answer: updated, Question: question, MirrorWarning: warning}, nil
}

func (s *ModerationServiceImpl) adminEdit(ctx context.Context, answer *domain.Answer, content string) (*domain.ModerationOutcome, error) {
	answer.Content = content
	updated, err := s.answers.UpdateModerated(ctx, answer)
	if err != nil {
		return nil, err
	}

	question, err := s.questions.FindByID(ctx, updated.QuestionID)
	if err != nil {
		return nil, err
	}

	var warning string
	if updated.IsApproved {
		warning = s.republishMirror(updated)
	}

	s.log.Info("answer edited by administrator",
		zap.String("event", string(domain.AnswerEditedEvent)),
		zap.Uint("answer_id", updated.ID))

	return &domain.ModerationOutcome{Answer: updated, Question: question, MirrorWarning: warning}, nil
}

// Delete implements domain.ModerationService. The mirror is retracted
// first; the deletion proceeds regardless of the mirror outcome. Row
// removal and the question-aggregate recompute happen in one repository
// transaction.
func (s *ModerationServiceImpl) Delete(ctx context.Context, caller *domain.Account, answerID uint) error {
	answer, err := s.answers.FindByID(ctx, answerID)
	if err != nil {
		return err
	}

	owner := caller.ID == answer.ExpertID
	admin := caller.Role == domain.RoleAdmin
	if !admin && !(owner && !answer.IsApproved) {
		return domain.ErrForbidden.WithMessage("approved answers may only be deleted by an administrator")
	}

	if answer.IsApproved {
		s.retractMirror(ctx, answer)
	}

	if err := s.answers.Delete(ctx, answerID); err != nil {
		return err
	}

	s.log.Info("answer deleted",
		zap.String("event", string(domain.AnswerDeletedEvent)),
		zap.Uint("answer_id", answerID),
		zap.Uint("caller_id", caller.ID),
		zap.Bool("was_approved", answer.IsApproved))
	return nil
}

// Like implements domain.ModerationService
func (s *ModerationServiceImpl) Like(ctx context.Context, answerID uint) (*domain.Answer, error) {
	return s.answers.AddLike(ctx, answerID)
}

// revertApproval puts the answer back to pending after an aggregate
// write failed mid-transition.
func (s *ModerationServiceImpl) revertApproval(ctx context.Context, answer *domain.Answer) {
	revert := *answer
	revert.IsApproved = false
	revert.IsAccepted = false
	revert.ModeratedBy = nil
	revert.ModeratedAt = nil
	revert.ModerationComment = ""
	if _, err := s.answers.UpdateModerated(ctx, &revert); err != nil {
		s.log.Error("failed to revert approval after aggregate failure",
			zap.Uint("answer_id", answer.ID), zap.Error(err))
	}
}

func (s *ModerationServiceImpl) requireModerator(account *domain.Account) error {
	if account.Role != domain.RoleAdmin {
		return domain.ErrForbidden.WithMessage("moderation capability required")
	}
	return nil
}

// publishMirror pushes the approved answer to the external channel.
// Best-effort: failures come back as a warning string, never an error.
// The call runs on a detached context so a client disconnect cannot
// cancel it after the transition is committed.
func (s *ModerationServiceImpl) publishMirror(question *domain.Question, answer *domain.Answer) string {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.GatewayTimeout)
	defer cancel()

	externalID, err := s.publisher.Publish(ctx, question, answer)
	if err != nil {
		s.log.Warn("external mirror publish failed",
			zap.String("event", string(domain.MirrorFailureEvent)),
			zap.Uint("answer_id", answer.ID),
			zap.Error(err))
		return "answer approved, but publishing to the external channel failed"
	}

	post := &domain.SocialPost{
		AnswerID:   answer.ID,
		Channel:    s.config.Channel,
		ExternalID: externalID,
		PostedAt:   time.Now(),
	}
	if err := s.answers.AttachSocialPost(ctx, post); err != nil {
		s.log.Error("failed to store social post reference",
			zap.Uint("answer_id", answer.ID), zap.Error(err))
		return "answer approved, but the mirror reference could not be stored"
	}
	answer.SocialPosts = append(answer.SocialPosts, *post)

	s.log.Info("answer mirrored to external channel",
		zap.String("event", string(domain.MirrorPublishedEvent)),
		zap.Uint("answer_id", answer.ID),
		zap.String("external_id", externalID))
	return ""
}

// retractMirror removes all external copies of the answer. Local refs are
// cleared regardless of the gateway outcome; the answer is no longer
// published either way.
func (s *ModerationServiceImpl) retractMirror(ctx context.Context, answer *domain.Answer) string {
	var warning string
	for i := range answer.SocialPosts {
		post := answer.SocialPosts[i]
		callCtx, cancel := context.WithTimeout(context.Background(), s.config.GatewayTimeout)
		err := s.publisher.Retract(callCtx, &post)
		cancel()
		if err != nil {
			s.log.Warn("external mirror retraction failed",
				zap.String("event", string(domain.MirrorFailureEvent)),
				zap.Uint("answer_id", answer.ID),
				zap.String("external_id", post.ExternalID),
				zap.Error(err))
			warning = "the external copy could not be retracted"
			continue
		}
		s.log.Info("external mirror retracted",
			zap.String("event", string(domain.MirrorRetractedEvent)),
			zap.Uint("answer_id", answer.ID),
			zap.String("external_id", post.ExternalID))
	}

	if err := s.answers.RemoveSocialPosts(ctx, answer.ID); err != nil {
		s.log.Error("failed to clear social post references",
			zap.Uint("answer_id", answer.ID), zap.Error(err))
	}
	answer.SocialPosts = nil
	return warning
}

// republishMirror refreshes the external copies with the new content.
func (s *ModerationServiceImpl) republishMirror(answer *domain.Answer) string {
	var warning string
	for i := range answer.SocialPosts {
		post := answer.SocialPosts[i]
		callCtx, cancel := context.WithTimeout(context.Background(), s.config.GatewayTimeout)
		err := s.publisher.Republish(callCtx, &post, answer.Content)
		cancel()
		if err != nil {
			s.log.Warn("external mirror republish failed",
				zap.String("event", string(domain.MirrorFailureEvent)),
				zap.Uint("answer_id", answer.ID),
				zap.String("external_id", post.ExternalID),
				zap.Error(err))
			warning = "the external copy could not be updated"
		}
	}
	return warning
}

// notifyExpert mails the answer's expert about a moderation outcome
// without blocking the transition.
func (s *ModerationServiceImpl) notifyExpert(expertID uint, kind domain.MailKind, questionTitle, comment string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.GatewayTimeout)
		defer cancel()

		expert, err := s.accounts.FindByID(ctx, expertID)
		if err != nil {
			return
		}
		data := map[string]string{
			"question": questionTitle,
			"comment":  comment,
		}
		if err := s.notifier.SendMail(ctx, expert.Email, kind, data); err != nil {
			s.log.Warn("failed to notify expert",
				zap.String("event", string(domain.MailFailureEvent)),
				zap.Uint("expert_id", expertID),
				zap.Error(err))
		}
	}()
}
