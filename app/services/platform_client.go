package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/amirphl/Amaterasu/config"
	"github.com/amirphl/Amaterasu/models"
)

// ErrPlatformRejected is returned when the platform API refused the post
var ErrPlatformRejected = errors.New("platform rejected the post")

// PublishResult holds the platform-side identity of a published post
type PublishResult struct {
	ExternalPostID string
}

// PlatformClient publishes content to a single external social platform
type PlatformClient interface {
	Platform() models.Platform
	Publish(ctx context.Context, content string) (*PublishResult, error)
}

// PlatformClientRegistry resolves the client for a platform
type PlatformClientRegistry map[models.Platform]PlatformClient

// ClientFor returns the client for the given platform
func (r PlatformClientRegistry) ClientFor(platform models.Platform) (PlatformClient, error) {
	client, ok := r[platform]
	if !ok {
		return nil, fmt.Errorf("no client registered for platform %s", platform)
	}
	return client, nil
}

// LinkedInClient implements PlatformClient against the LinkedIn UGC API
type LinkedInClient struct {
	config *config.LinkedInConfig
	client *http.Client
}

// NewLinkedInClient creates a new LinkedIn client
func NewLinkedInClient(cfg *config.LinkedInConfig) PlatformClient {
	return &LinkedInClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Platform returns the platform this client serves
func (c *LinkedInClient) Platform() models.Platform {
	return models.PlatformLinkedIn
}

// linkedInUGCRequest represents the request payload for the UGC post API
type linkedInUGCRequest struct {
	Author          string         `json:"author"`
	LifecycleState  string         `json:"lifecycleState"`
	SpecificContent map[string]any `json:"specificContent"`
	Visibility      map[string]any `json:"visibility"`
}

// linkedInUGCResponse represents the response from the UGC post API
type linkedInUGCResponse struct {
	ID string `json:"id"`
}

// Publish creates a text UGC post on LinkedIn
func (c *LinkedInClient) Publish(ctx context.Context, content string) (*PublishResult, error) {
	payload := linkedInUGCRequest{
		Author:         c.config.AuthorURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary": map[string]any{
					"text": content,
				},
				"shareMediaCategory": "NONE",
			},
		},
		Visibility: map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal LinkedIn request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/ugcPosts", c.config.APIBaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send LinkedIn request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: LinkedIn returned %d: %s", ErrPlatformRejected, resp.StatusCode, string(body))
	}

	var result linkedInUGCResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode LinkedIn response: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("%w: LinkedIn response carried no post ID", ErrPlatformRejected)
	}

	return &PublishResult{ExternalPostID: result.ID}, nil
}

// XClient implements PlatformClient against the X (Twitter) v2 API
type XClient struct {
	config *config.XConfig
	client *http.Client
}

// NewXClient creates a new X client
func NewXClient(cfg *config.XConfig) PlatformClient {
	return &XClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Platform returns the platform this client serves
func (c *XClient) Platform() models.Platform {
	return models.PlatformX
}

// xTweetRequest represents the request payload for the tweet API
type xTweetRequest struct {
	Text string `json:"text"`
}

// xTweetResponse represents the response from the tweet API
type xTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish creates a tweet
func (c *XClient) Publish(ctx context.Context, content string) (*PublishResult, error) {
	requestBody, err := json.Marshal(xTweetRequest{Text: content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal X request: %w", err)
	}

	url := fmt.Sprintf("%s/2/tweets", c.config.APIBaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send X request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: X returned %d: %s", ErrPlatformRejected, resp.StatusCode, string(body))
	}

	var result xTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode X response: %w", err)
	}
	if result.Data.ID == "" {
		return nil, fmt.Errorf("%w: X response carried no tweet ID", ErrPlatformRejected)
	}

	return &PublishResult{ExternalPostID: result.Data.ID}, nil
}

// MockPlatformClient implements PlatformClient for testing
type MockPlatformClient struct {
	ClientPlatform models.Platform
	PublishErr     error
	NextPostID     string

	mu        sync.Mutex
	Published []string
}

// NewMockPlatformClient creates a new mock platform client
func NewMockPlatformClient(platform models.Platform) *MockPlatformClient {
	return &MockPlatformClient{
		ClientPlatform: platform,
		NextPostID:     "mock-post-1",
	}
}

// Platform returns the platform this client serves
func (m *MockPlatformClient) Platform() models.Platform {
	return m.ClientPlatform
}

// Publish records the content and returns the configured result
func (m *MockPlatformClient) Publish(ctx context.Context, content string) (*PublishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishErr != nil {
		return nil, m.PublishErr
	}

	m.Published = append(m.Published, content)
	return &PublishResult{ExternalPostID: m.NextPostID}, nil
}
