package client_test

import (
	"aichat-backend/internal/api"
	"aichat-backend/internal/client"
	"aichat-backend/internal/database"
	"aichat-backend/internal/models"
	"aichat-backend/pkg/logger"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// countingTransport counts round trips so tests can assert that local
// rejections never reach the network.
type countingTransport struct {
	calls int64
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&t.calls, 1)
	return http.DefaultTransport.RoundTrip(req)
}

func (t *countingTransport) Calls() int64 {
	return atomic.LoadInt64(&t.calls)
}

func setupServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.Migrator().DropTable(&models.User{}, &models.Notification{})
	if err := db.AutoMigrate(&models.User{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	database.DB = db

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	server := httptest.NewServer(api.NewEngine())
	return server, mr
}

func newChatClient(t *testing.T, server *httptest.Server, transport *countingTransport) *client.ChatClient {
	httpClient := server.Client()
	if transport != nil {
		httpClient = &http.Client{Transport: transport}
	}
	apiClient := client.NewAPI(server.URL, httpClient)
	store := client.NewStore(client.State{})
	return client.NewChatClient(apiClient, store, 20*time.Millisecond)
}

func setCredits(t *testing.T, username string, credits int64) {
	err := database.DB.Model(&models.User{}).
		Where("username = ?", username).
		Update("credits", credits).Error
	if err != nil {
		t.Fatalf("failed to set credits: %v", err)
	}
}

func TestSendMessage_DeductsThenAppends(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	c := newChatClient(t, server, nil)
	defer c.Close()

	assert.NoError(t, c.Register("chatter", "password1"))
	setCredits(t, "chatter", 1)
	assert.NoError(t, c.LoadProfile())

	conversationID := c.NewConversation()
	assert.NoError(t, c.SendMessage("hi there"))

	state := c.Store().State()
	// Balance comes from the server response, not local arithmetic.
	assert.Equal(t, int64(0), state.Credits)

	active, ok := state.ActiveConversation()
	assert.True(t, ok)
	assert.Equal(t, conversationID, active.ID)
	assert.Len(t, active.Messages, 1)
	assert.Equal(t, "user", active.Messages[0].Role)
	assert.Equal(t, "hi there", active.Messages[0].Content)

	// The mock assistant reply arrives after the configured delay.
	assert.Eventually(t, func() bool {
		conv, _ := c.Store().State().ActiveConversation()
		return len(conv.Messages) == 2 && conv.Messages[1].Role == "assistant"
	}, time.Second, 5*time.Millisecond)
}

func TestSendMessage_SecondSendRejectedLocally(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	transport := &countingTransport{}
	c := newChatClient(t, server, transport)
	defer c.Close()

	assert.NoError(t, c.Register("lastcredit", "password1"))
	setCredits(t, "lastcredit", 1)
	assert.NoError(t, c.LoadProfile())
	c.NewConversation()

	assert.NoError(t, c.SendMessage("first"))
	assert.Equal(t, int64(0), c.Store().State().Credits)

	// The cached balance is 0: rejected before any round trip.
	before := transport.Calls()
	err := c.SendMessage("second")
	assert.ErrorIs(t, err, client.ErrInsufficientCredits)
	assert.Equal(t, before, transport.Calls())

	conv, _ := c.Store().State().ActiveConversation()
	assert.Len(t, conv.Messages, 1)
}

func TestSendMessage_ZeroBalanceRejectedLocally(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	transport := &countingTransport{}
	c := newChatClient(t, server, transport)
	defer c.Close()

	assert.NoError(t, c.Register("penniless", "password1"))
	setCredits(t, "penniless", 0)
	assert.NoError(t, c.LoadProfile())
	c.NewConversation()

	before := transport.Calls()
	err := c.SendMessage("hello?")
	assert.ErrorIs(t, err, client.ErrInsufficientCredits)
	assert.Equal(t, before, transport.Calls())

	conv, _ := c.Store().State().ActiveConversation()
	assert.Empty(t, conv.Messages)
	assert.Equal(t, int64(0), c.Store().State().Credits)
}

func TestSendMessage_ServerFailureLeavesStateUntouched(t *testing.T) {
	server, mr := setupServer(t)
	defer mr.Close()

	c := newChatClient(t, server, nil)
	defer c.Close()

	assert.NoError(t, c.Register("stranded", "password1"))
	assert.NoError(t, c.LoadProfile())
	c.NewConversation()

	creditsBefore := c.Store().State().Credits
	assert.Greater(t, creditsBefore, int64(0))

	// Kill the server: the deduction round trip fails.
	server.Close()

	err := c.SendMessage("lost message")
	assert.Error(t, err)

	state := c.Store().State()
	assert.Equal(t, creditsBefore, state.Credits)
	conv, _ := state.ActiveConversation()
	assert.Empty(t, conv.Messages)
}

func TestSendMessage_StaleBalanceReconciled(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	c := newChatClient(t, server, nil)
	defer c.Close()

	assert.NoError(t, c.Register("stale", "password1"))
	assert.NoError(t, c.LoadProfile())
	c.NewConversation()

	// The server balance drops to zero behind the client's back.
	setCredits(t, "stale", 0)

	err := c.SendMessage("doomed")
	assert.ErrorIs(t, err, client.ErrInsufficientCredits)

	// The 400 carried the real balance; the cache is reconciled and the
	// transcript untouched.
	state := c.Store().State()
	assert.Equal(t, int64(0), state.Credits)
	conv, _ := state.ActiveConversation()
	assert.Empty(t, conv.Messages)
}

func TestAssistantReply_LandsOnCapturedConversation(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	c := newChatClient(t, server, nil)
	defer c.Close()

	assert.NoError(t, c.Register("switcher", "password1"))
	assert.NoError(t, c.LoadProfile())

	first := c.NewConversation()
	assert.NoError(t, c.SendMessage("question in first"))

	// Switch away before the reply fires; it still lands on the first
	// conversation, not the newly active one.
	second := c.NewConversation()

	assert.Eventually(t, func() bool {
		state := c.Store().State()
		for _, conv := range state.Conversations {
			if conv.ID == first && len(conv.Messages) == 2 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	state := c.Store().State()
	for _, conv := range state.Conversations {
		if conv.ID == second {
			assert.Empty(t, conv.Messages)
		}
	}
}

func TestNotificationFlow(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	c := newChatClient(t, server, nil)
	defer c.Close()

	assert.NoError(t, c.Register("inboxed", "password1"))
	assert.NoError(t, c.RefreshNotifications())

	state := c.Store().State()
	assert.Len(t, state.Notifications, 1) // registration welcome
	assert.Equal(t, 1, state.UnreadCount())

	assert.NoError(t, c.MarkNotificationRead(state.Notifications[0].ID))
	assert.Equal(t, 0, c.Store().State().UnreadCount())

	// Server agrees after a refresh.
	assert.NoError(t, c.RefreshNotifications())
	assert.Equal(t, 0, c.Store().State().UnreadCount())

	assert.NoError(t, c.MarkAllNotificationsRead())
	assert.Equal(t, 0, c.Store().State().UnreadCount())
}

func TestLogoutClearsSession(t *testing.T) {
	server, mr := setupServer(t)
	defer server.Close()
	defer mr.Close()

	c := newChatClient(t, server, nil)
	defer c.Close()

	assert.NoError(t, c.Register("leaver", "password1"))
	assert.True(t, c.Store().State().Authenticated)

	assert.NoError(t, c.Logout())
	state := c.Store().State()
	assert.False(t, state.Authenticated)
	assert.Equal(t, int64(0), state.Credits)

	// The denylisted token no longer authenticates.
	assert.Error(t, c.LoadProfile())
}
