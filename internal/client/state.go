package client

import (
	"aichat-backend/internal/models"
	"time"
)

// Message is one entry in a conversation transcript.
type Message struct {
	ID        string
	Role      string // "user" or "assistant"
	Content   string
	Timestamp time.Time
}

// Conversation is a client-held transcript between the user and the
// assistant. Conversations never leave the client in current scope.
type Conversation struct {
	ID       string
	Title    string
	Preview  string
	Messages []Message
	Created  time.Time
}

// State is the local mirror of server truth plus UI-only fields. Values are
// copied on read; transitions produce a new State rather than mutating in
// place.
type State struct {
	Username             string
	Authenticated        bool
	Credits              int64
	Conversations        []Conversation
	ActiveConversationID string
	Notifications        []models.Notification
	PanelOpen            bool
}

// Event is a state transition. Apply must be pure: same state in, same
// state out, no side effects.
type Event interface {
	Apply(s State) State
}

// Store owns the application state. Events are processed one at a time
// through a single queue, so transitions never observe each other halfway.
type Store struct {
	events  chan eventRequest
	reads   chan chan State
	closing chan struct{}
	done    chan struct{}
}

type eventRequest struct {
	event Event
	ack   chan struct{}
}

func NewStore(initial State) *Store {
	s := &Store{
		events:  make(chan eventRequest),
		reads:   make(chan chan State),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop(initial)
	return s
}

func (s *Store) loop(state State) {
	defer close(s.done)
	for {
		select {
		case req := <-s.events:
			state = req.event.Apply(state)
			close(req.ack)
		case out := <-s.reads:
			out <- cloneState(state)
		case <-s.closing:
			return
		}
	}
}

// Dispatch applies the event and returns once it has been processed.
func (s *Store) Dispatch(e Event) {
	req := eventRequest{event: e, ack: make(chan struct{})}
	select {
	case s.events <- req:
		<-req.ack
	case <-s.closing:
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	out := make(chan State, 1)
	select {
	case s.reads <- out:
		return <-out
	case <-s.closing:
		return State{}
	}
}

func (s *Store) Close() {
	select {
	case <-s.closing:
	default:
		close(s.closing)
	}
	<-s.done
}

func cloneState(s State) State {
	out := s
	out.Conversations = make([]Conversation, len(s.Conversations))
	for i, c := range s.Conversations {
		cc := c
		cc.Messages = append([]Message(nil), c.Messages...)
		out.Conversations[i] = cc
	}
	out.Notifications = append([]models.Notification(nil), s.Notifications...)
	return out
}

// --- transitions ---

// SessionStarted records a successful login/registration.
type SessionStarted struct {
	Username string
	Credits  int64
}

func (e SessionStarted) Apply(s State) State {
	s.Username = e.Username
	s.Credits = e.Credits
	s.Authenticated = true
	return s
}

// SessionEnded clears everything the session owned.
type SessionEnded struct{}

func (e SessionEnded) Apply(State) State {
	return State{}
}

// ProfileLoaded reconciles balance and notifications with server truth.
type ProfileLoaded struct {
	Username      string
	Credits       int64
	Notifications []models.Notification
}

func (e ProfileLoaded) Apply(s State) State {
	s.Username = e.Username
	s.Credits = e.Credits
	s.Notifications = e.Notifications
	s.Authenticated = true
	return s
}

// CreditsSet replaces the cached balance with the server-returned value.
// The balance is never derived by local arithmetic.
type CreditsSet struct {
	Credits int64
}

func (e CreditsSet) Apply(s State) State {
	s.Credits = e.Credits
	return s
}

// ConversationCreated prepends an empty conversation and activates it.
type ConversationCreated struct {
	Conversation Conversation
}

func (e ConversationCreated) Apply(s State) State {
	s.Conversations = append([]Conversation{e.Conversation}, s.Conversations...)
	s.ActiveConversationID = e.Conversation.ID
	return s
}

// ConversationActivated switches the active transcript. Local only.
type ConversationActivated struct {
	ID string
}

func (e ConversationActivated) Apply(s State) State {
	for _, c := range s.Conversations {
		if c.ID == e.ID {
			s.ActiveConversationID = e.ID
			break
		}
	}
	return s
}

// MessageAppended adds a message to the transcript it was addressed to,
// which is not necessarily the active one: deferred assistant replies carry
// the conversation id captured at schedule time.
type MessageAppended struct {
	ConversationID string
	Message        Message
}

func (e MessageAppended) Apply(s State) State {
	conversations := append([]Conversation(nil), s.Conversations...)
	for i, c := range conversations {
		if c.ID != e.ConversationID {
			continue
		}
		c.Messages = append(append([]Message(nil), c.Messages...), e.Message)
		c.Preview = preview(e.Message.Content)
		if c.Title == "" && e.Message.Role == "user" {
			c.Title = preview(e.Message.Content)
		}
		conversations[i] = c
		break
	}
	s.Conversations = conversations
	return s
}

// NotificationsLoaded replaces the notification mirror with the server list.
type NotificationsLoaded struct {
	Notifications []models.Notification
}

func (e NotificationsLoaded) Apply(s State) State {
	s.Notifications = e.Notifications
	return s
}

// NotificationRead flips one cached notification to read.
type NotificationRead struct {
	ID uint
}

func (e NotificationRead) Apply(s State) State {
	notifications := append([]models.Notification(nil), s.Notifications...)
	for i := range notifications {
		if notifications[i].ID == e.ID {
			notifications[i].Read = true
		}
	}
	s.Notifications = notifications
	return s
}

// AllNotificationsRead flips every cached notification to read.
type AllNotificationsRead struct{}

func (e AllNotificationsRead) Apply(s State) State {
	notifications := append([]models.Notification(nil), s.Notifications...)
	for i := range notifications {
		notifications[i].Read = true
	}
	s.Notifications = notifications
	return s
}

// PanelToggled flips the notification panel. Local only.
type PanelToggled struct{}

func (e PanelToggled) Apply(s State) State {
	s.PanelOpen = !s.PanelOpen
	return s
}

func preview(content string) string {
	const max = 50
	runes := []rune(content)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return content
}

// UnreadCount is a derived view used by the panel badge.
func (s State) UnreadCount() int {
	count := 0
	for _, n := range s.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// ActiveConversation returns the active transcript, if any.
func (s State) ActiveConversation() (Conversation, bool) {
	for _, c := range s.Conversations {
		if c.ID == s.ActiveConversationID {
			return c, true
		}
	}
	return Conversation{}, false
}
