package slackhook

import (
	"fmt"

	"github.com/slack-go/slack"
)

// SlackAPI is an interface for the Slack Web API calls the handler makes.
// This abstraction allows mocking the API in tests.
type SlackAPI interface {
	// OpenView opens a modal for the given interaction trigger
	OpenView(triggerID string, view slack.ModalViewRequest) error

	// UpdateView replaces an open modal in place
	UpdateView(view slack.ModalViewRequest, viewID, hash string) error

	// PostMessage posts a plain text message to a channel
	PostMessage(channelID, text string) error
}

// APIClient is the production implementation backed by slack.Client
type APIClient struct {
	api *slack.Client
}

// NewAPIClient creates a new Slack API client from a bot token
func NewAPIClient(botToken string) *APIClient {
	return &APIClient{api: slack.New(botToken)}
}

// OpenView opens a modal for the given interaction trigger
func (c *APIClient) OpenView(triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenView(triggerID, view); err != nil {
		return fmt.Errorf("views.open failed: %w", err)
	}
	return nil
}

// UpdateView replaces an open modal in place
func (c *APIClient) UpdateView(view slack.ModalViewRequest, viewID, hash string) error {
	if _, err := c.api.UpdateView(view, "", hash, viewID); err != nil {
		return fmt.Errorf("views.update failed: %w", err)
	}
	return nil
}

// PostMessage posts a plain text message to a channel
func (c *APIClient) PostMessage(channelID, text string) error {
	if _, _, err := c.api.PostMessage(channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}

// MockSlackAPI is a mock implementation for testing
type MockSlackAPI struct {
	OpenViewFunc    func(triggerID string, view slack.ModalViewRequest) error
	UpdateViewFunc  func(view slack.ModalViewRequest, viewID, hash string) error
	PostMessageFunc func(channelID, text string) error

	// Track calls
	OpenViewCalls []struct {
		TriggerID string
		View      slack.ModalViewRequest
	}
	UpdateViewCalls []struct {
		View   slack.ModalViewRequest
		ViewID string
		Hash   string
	}
	PostMessageCalls []struct {
		ChannelID string
		Text      string
	}
}

// NewMockSlackAPI creates a new mock Slack API client
func NewMockSlackAPI() *MockSlackAPI {
	return &MockSlackAPI{}
}

// OpenView mock implementation
func (m *MockSlackAPI) OpenView(triggerID string, view slack.ModalViewRequest) error {
	m.OpenViewCalls = append(m.OpenViewCalls, struct {
		TriggerID string
		View      slack.ModalViewRequest
	}{triggerID, view})

	if m.OpenViewFunc != nil {
		return m.OpenViewFunc(triggerID, view)
	}

	return nil
}

// UpdateView mock implementation
func (m *MockSlackAPI) UpdateView(view slack.ModalViewRequest, viewID, hash string) error {
	m.UpdateViewCalls = append(m.UpdateViewCalls, struct {
		View   slack.ModalViewRequest
		ViewID string
		Hash   string
	}{view, viewID, hash})

	if m.UpdateViewFunc != nil {
		return m.UpdateViewFunc(view, viewID, hash)
	}

	return nil
}

// PostMessage mock implementation
func (m *MockSlackAPI) PostMessage(channelID, text string) error {
	m.PostMessageCalls = append(m.PostMessageCalls, struct {
		ChannelID string
		Text      string
	}{channelID, text})

	if m.PostMessageFunc != nil {
		return m.PostMessageFunc(channelID, text)
	}

	return nil
}
