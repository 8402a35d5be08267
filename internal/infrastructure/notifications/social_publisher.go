package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/you/qnaforum/domain"
)

// SocialPublisherImpl implements domain.SocialPublisher against a
// JSON-over-HTTP publishing API. Callers bound every call with a context
// timeout; a failure here never blocks or reverts a moderation transition.
type SocialPublisherImpl struct {
	endpoint string
	apiKey   string
	channel  string
	client   *http.Client
}

// NewSocialPublisher creates a new social publisher client
func NewSocialPublisher(endpoint, apiKey, channel string) domain.SocialPublisher {
	return &SocialPublisherImpl{
		endpoint: endpoint,
		apiKey:   apiKey,
		channel:  channel,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type publishRequest struct {
	Channel  string `json:"channel"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	AnswerID uint   `json:"answer_id"`
}

type publishResponse struct {
	ID string `json:"id"`
}

// Publish implements domain.SocialPublisher
func (p *SocialPublisherImpl) Publish(ctx context.Context, question *domain.Question, answer *domain.Answer) (string, error) {
	if p.endpoint == "" {
		// Unconfigured channel behaves as a no-op mirror.
		return fmt.Sprintf("mock-%d", answer.ID), nil
	}

	body := publishRequest{
		Channel:  p.channel,
		Title:    question.Title,
		Content:  answer.Content,
		AnswerID: answer.ID,
	}
	var resp publishResponse
	if err := p.do(ctx, http.MethodPost, p.endpoint+"/posts", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("publish response missing post id")
	}
	return resp.ID, nil
}

// Republish implements domain.SocialPublisher
func (p *SocialPublisherImpl) Republish(ctx context.Context, post *domain.SocialPost, content string) error {
	if p.endpoint == "" {
		return nil
	}
	body := map[string]string{"content": content}
	return p.do(ctx, http.MethodPut, fmt.Sprintf("%s/posts/%s", p.endpoint, post.ExternalID), body, nil)
}

// Retract implements domain.SocialPublisher
func (p *SocialPublisherImpl) Retract(ctx context.Context, post *domain.SocialPost) error {
	if p.endpoint == "" {
		return nil
	}
	return p.do(ctx, http.MethodDelete, fmt.Sprintf("%s/posts/%s", p.endpoint, post.ExternalID), nil, nil)
}

func (p *SocialPublisherImpl) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("social gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("social gateway returned %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}
