package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatHub_RegisterUnregister(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)
	client := &Client{
		UserID: 1,
		Send:   make(chan []byte, 10),
	}

	hub.RegisterUser(client)
	hub.mu.RLock()
	assert.Len(t, hub.userConns[1], 1)
	hub.mu.RUnlock()

	hub.UnregisterUser(client)
	hub.mu.RLock()
	assert.Empty(t, hub.userConns[1])
	hub.mu.RUnlock()

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_BroadcastToConversation(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)
	client := &Client{
		UserID: 1,
		Send:   make(chan []byte, 10),
	}
	hub.RegisterUser(client)
	hub.JoinConversation(1, 101)

	msg := ChatMessage{
		Type:           "message",
		ConversationID: 101,
		Payload:        "Is the textbook still available?",
	}

	hub.BroadcastToConversation(101, msg)

	sentMsg := <-client.Send
	var received ChatMessage
	err := json.Unmarshal(sentMsg, &received)
	assert.NoError(t, err)
	assert.Equal(t, "message", received.Type)
	assert.Equal(t, uint(101), received.ConversationID)

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_MultiDeviceSupport(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)
	userID := uint(42)

	client1 := &Client{UserID: userID, Send: make(chan []byte, 10)}
	client2 := &Client{UserID: userID, Send: make(chan []byte, 10)}

	hub.RegisterUser(client1)
	hub.RegisterUser(client2)

	hub.mu.RLock()
	assert.Len(t, hub.userConns[userID], 2)
	hub.mu.RUnlock()

	hub.JoinConversation(userID, 202)

	msg := ChatMessage{Type: "message", ConversationID: 202, Payload: "Multi-device test"}
	hub.BroadcastToConversation(202, msg)

	select {
	case <-client1.Send:
	default:
		t.Error("client1 did not receive message")
	}

	select {
	case <-client2.Send:
	default:
		t.Error("client2 did not receive message")
	}

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_BroadcastToConversation_DoesNotSendToNonParticipants(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)

	participant := &Client{UserID: 1, Send: make(chan []byte, 10)}
	outsider := &Client{UserID: 2, Send: make(chan []byte, 10)}

	hub.RegisterUser(participant)
	hub.RegisterUser(outsider)
	hub.JoinConversation(1, 404)

	msg := ChatMessage{
		Type:           "message",
		ConversationID: 404,
		Payload:        "Scoped fanout",
	}
	hub.BroadcastToConversation(404, msg)

	select {
	case <-participant.Send:
	default:
		t.Fatal("participant did not receive message")
	}

	// The outsider only sees the participant's user_status events from
	// registration, never the conversation message.
	for {
		select {
		case raw := <-outsider.Send:
			var received ChatMessage
			assert.NoError(t, json.Unmarshal(raw, &received))
			assert.NotEqual(t, "message", received.Type)
		default:
			_ = hub.Shutdown(context.Background())
			return
		}
	}
}

func TestChatHub_LeaveConversationStopsDelivery(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)

	client := &Client{UserID: 5, Send: make(chan []byte, 10)}
	hub.RegisterUser(client)
	hub.JoinConversation(5, 300)
	assert.True(t, hub.IsUserActive(5, 300))

	hub.LeaveConversation(5, 300)
	assert.False(t, hub.IsUserActive(5, 300))

	hub.BroadcastToConversation(300, ChatMessage{Type: "message", ConversationID: 300, Payload: "gone"})
	assert.Empty(t, client.Send)

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_UnregisterCleansUpConversations(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)

	client := &Client{UserID: 9, Send: make(chan []byte, 10)}
	hub.RegisterUser(client)
	hub.JoinConversation(9, 77)

	hub.UnregisterClient(client)

	hub.mu.RLock()
	_, convExists := hub.conversations[77]
	_, activeExists := hub.userActiveConvs[9]
	hub.mu.RUnlock()
	assert.False(t, convExists)
	assert.False(t, activeExists)
	assert.False(t, hub.IsUserOnline(9))

	_ = hub.Shutdown(context.Background())
}

func TestChatHub_GetActiveUsers(t *testing.T) {
	hub := NewChatHub()
	hub.presence.SetOfflineGracePeriod(20 * time.Millisecond)

	buyer := &Client{UserID: 11, Send: make(chan []byte, 10)}
	seller := &Client{UserID: 12, Send: make(chan []byte, 10)}
	hub.RegisterUser(buyer)
	hub.RegisterUser(seller)
	hub.JoinConversation(11, 500)
	hub.JoinConversation(12, 500)

	active := hub.GetActiveUsers(500)
	assert.ElementsMatch(t, []uint{11, 12}, active)
	assert.Empty(t, hub.GetActiveUsers(501))

	_ = hub.Shutdown(context.Background())
}
