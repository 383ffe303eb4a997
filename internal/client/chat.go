package client

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSendInFlight         = errors.New("a send is already in flight")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrNoActiveConversation = errors.New("no active conversation")
)

const mockAssistantReply = "That's an interesting point. Here's what I think... " +
	"This is a mock response to demonstrate the chat functionality. " +
	"In a real application, this would be connected to an actual AI service."

// ChatClient drives the send-message protocol against the API and keeps the
// Store reconciled with server responses.
type ChatClient struct {
	api        *API
	store      *Store
	replyDelay time.Duration

	mu      sync.Mutex
	sending bool
	timers  map[*time.Timer]struct{}
}

func NewChatClient(api *API, store *Store, replyDelay time.Duration) *ChatClient {
	return &ChatClient{
		api:        api,
		store:      store,
		replyDelay: replyDelay,
		timers:     make(map[*time.Timer]struct{}),
	}
}

func (c *ChatClient) Store() *Store { return c.store }

// SendMessage runs the protocol in order: local balance check, ledger
// deduction, transcript append with the server-returned balance, deferred
// assistant reply. Further sends are rejected until the deduction resolves,
// and nothing is appended optimistically before the server confirms.
func (c *ChatClient) SendMessage(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}

	state := c.store.State()
	conversationID := state.ActiveConversationID
	if conversationID == "" {
		return ErrNoActiveConversation
	}

	// Local rejection: no network round trip when the cached balance
	// already rules the send out.
	if state.Credits < 1 {
		return ErrInsufficientCredits
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	credits, err := c.api.DeductMessageCredit()
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			// The server is the authority; reconcile the stale balance.
			c.store.Dispatch(CreditsSet{Credits: credits})
		}
		return err
	}

	c.store.Dispatch(MessageAppended{
		ConversationID: conversationID,
		Message: Message{
			ID:        uuid.New().String(),
			Role:      "user",
			Content:   content,
			Timestamp: time.Now(),
		},
	})
	c.store.Dispatch(CreditsSet{Credits: credits})

	c.scheduleAssistantReply(conversationID)
	return nil
}

// scheduleAssistantReply delivers the mock reply after the configured delay
// to the conversation captured at schedule time, even if the user has
// switched conversations since. The reply costs nothing and cannot fail.
func (c *ChatClient) scheduleAssistantReply(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(c.replyDelay, func() {
		c.store.Dispatch(MessageAppended{
			ConversationID: conversationID,
			Message: Message{
				ID:        uuid.New().String(),
				Role:      "assistant",
				Content:   mockAssistantReply,
				Timestamp: time.Now(),
			},
		})
		c.mu.Lock()
		delete(c.timers, timer)
		c.mu.Unlock()
	})
	c.timers[timer] = struct{}{}
}

// NewConversation creates an empty conversation and activates it.
func (c *ChatClient) NewConversation() string {
	conversation := Conversation{
		ID:      uuid.New().String(),
		Title:   "",
		Preview: "Start a conversation with our AI assistant...",
		Created: time.Now(),
	}
	c.store.Dispatch(ConversationCreated{Conversation: conversation})
	return conversation.ID
}

// SwitchConversation activates another transcript. Pure local transition.
func (c *ChatClient) SwitchConversation(id string) {
	c.store.Dispatch(ConversationActivated{ID: id})
}

// TogglePanel flips the notification panel. Pure local transition.
func (c *ChatClient) TogglePanel() {
	c.store.Dispatch(PanelToggled{})
}

// LoadProfile pulls server truth and reconciles the local mirror.
func (c *ChatClient) LoadProfile() error {
	profile, err := c.api.Profile()
	if err != nil {
		return err
	}
	c.store.Dispatch(ProfileLoaded{
		Username:      profile.Username,
		Credits:       profile.Credits,
		Notifications: profile.Notifications,
	})
	return nil
}

// RefreshNotifications replaces the cached list with the server's.
func (c *ChatClient) RefreshNotifications() error {
	notifications, err := c.api.ListNotifications()
	if err != nil {
		return err
	}
	c.store.Dispatch(NotificationsLoaded{Notifications: notifications})
	return nil
}

// MarkNotificationRead writes through to the server, then updates the cache.
func (c *ChatClient) MarkNotificationRead(id uint) error {
	if err := c.api.MarkNotificationRead(id); err != nil {
		return err
	}
	c.store.Dispatch(NotificationRead{ID: id})
	return nil
}

// MarkAllNotificationsRead writes through to the server, then updates the cache.
func (c *ChatClient) MarkAllNotificationsRead() error {
	if err := c.api.MarkAllNotificationsRead(); err != nil {
		return err
	}
	c.store.Dispatch(AllNotificationsRead{})
	return nil
}

// Login authenticates and seeds the session state.
func (c *ChatClient) Login(username, password string) error {
	result, err := c.api.Login(username, password)
	if err != nil {
		return err
	}
	c.store.Dispatch(SessionStarted{Username: result.Username, Credits: result.Credits})
	return nil
}

// Register creates the account and seeds the session state.
func (c *ChatClient) Register(username, password string) error {
	result, err := c.api.Register(username, password)
	if err != nil {
		return err
	}
	c.store.Dispatch(SessionStarted{Username: result.Username, Credits: result.Credits})
	return nil
}

// Logout discards the credential and resets local state.
func (c *ChatClient) Logout() error {
	err := c.api.Logout()
	c.store.Dispatch(SessionEnded{})
	return err
}

// Close cancels outstanding assistant-reply timers and stops the store.
// A reply whose timer already fired is delivered; one still pending is
// dropped, so shutdown is deterministic.
func (c *ChatClient) Close() {
	c.mu.Lock()
	for timer := range c.timers {
		timer.Stop()
	}
	c.timers = make(map[*time.Timer]struct{})
	c.mu.Unlock()
	c.store.Close()
}
