package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"campusmarket/internal/middleware"
	"campusmarket/internal/notifications"
	"campusmarket/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler returns a websocket handler that registers connections with the Hub.
// Authentication is handled by route middleware and userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}
		uid, ok := userIDVal.(uint)
		if !ok {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.hub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Notification: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		defer s.hub.UnregisterClient(client)

		if terr := s.userRepo.TouchLastSeen(context.Background(), uid); terr != nil {
			log.Printf("touch last seen error: %v", terr)
		}

		// Start pumps
		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketChatHandler handles WebSocket connections for real-time chat
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket Chat: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		// Get user info for username
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to get user %d: %v", userID, err)
			_ = conn.Close()
			return
		}
		username := user.Username

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incomingMsg map[string]interface{}
			if err := json.Unmarshal(message, &incomingMsg); err != nil {
				log.Printf("WebSocket: Invalid message format from user %d", userID)
				return
			}

			msgType, ok := incomingMsg["type"].(string)
			if !ok {
				return
			}

			switch msgType {
			case "join":
				// Join a conversation to receive its realtime events
				if convIDFloat, ok := incomingMsg["conversation_id"].(float64); ok {
					convID := uint(convIDFloat)
					if s.isParticipant(ctx, userID, convID) {
						s.chatHub.JoinConversation(userID, convID)

						response := notifications.ChatMessage{
							Type:           "joined",
							ConversationID: convID,
							Payload:        map[string]interface{}{"conversation_id": convID},
						}
						responseJSON, _ := json.Marshal(response)
						c.TrySend(responseJSON)
					}
				}

			case "leave":
				if convIDFloat, ok := incomingMsg["conversation_id"].(float64); ok {
					s.chatHub.LeaveConversation(userID, uint(convIDFloat))
				}

			case "typing":
				// Typing indicator - limit to 10 per 10 seconds to prevent spam
				if convIDFloat, ok := incomingMsg["conversation_id"].(float64); ok {
					convID := uint(convIDFloat)
					isTyping, _ := incomingMsg["is_typing"].(bool)

					id := fmt.Sprintf("user:%d", userID)
					allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
					if !allowed {
						return // Silently drop spammy typing indicators
					}

					if terr := s.chatService.Typing(ctx, convID, userID, isTyping); terr != nil {
						log.Printf("publish typing indicator error: %v", terr)
					}
				}

			case "message":
				// Send a message (alternative to the HTTP endpoint)
				if convIDFloat, ok := incomingMsg["conversation_id"].(float64); ok {
					convID := uint(convIDFloat)
					content, _ := incomingMsg["content"].(string)

					// Rate limit messages - same as HTTP (15 per minute)
					id := fmt.Sprintf("user:%d", userID)
					allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, 15, time.Minute)
					if !allowed {
						response := notifications.ChatMessage{
							Type: "error",
							Payload: map[string]string{
								"message": "Rate limit exceeded. Please wait a moment.",
							},
						}
						if respJSON, err := json.Marshal(response); err == nil {
							c.TrySend(respJSON)
						}
						return
					}

					sent, serr := s.chatService.SendMessage(ctx, service.SendMessageInput{
						UserID:         userID,
						ConversationID: convID,
						Content:        content,
					})
					if serr != nil {
						response := notifications.ChatMessage{
							Type:           "error",
							ConversationID: convID,
							Payload:        map[string]string{"message": serr.Error()},
						}
						if respJSON, merr := json.Marshal(response); merr == nil {
							c.TrySend(respJSON)
						}
						return
					}

					// Echo the persisted message back to the sender
					ack := notifications.ChatMessage{
						Type:           "sent",
						ConversationID: convID,
						UserID:         userID,
						Username:       username,
						Payload:        sent,
					}
					if ackJSON, aerr := json.Marshal(ack); aerr == nil {
						c.TrySend(ackJSON)
					}
				}

			case "read":
				// Mark conversation as read
				if convIDFloat, ok := incomingMsg["conversation_id"].(float64); ok {
					convID := uint(convIDFloat)
					if merr := s.chatService.MarkRead(ctx, convID, userID); merr != nil {
						log.Printf("mark read error: %v", merr)
					}
				}
			}
		}

		// Send welcome message
		welcomeMsg := notifications.ChatMessage{
			Type:    "connected",
			Payload: map[string]interface{}{"user_id": userID, "username": username},
		}
		if welcomeJSON, err := json.Marshal(welcomeMsg); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

// isParticipant checks whether a user is the buyer or seller of a conversation.
func (s *Server) isParticipant(ctx context.Context, userID, conversationID uint) bool {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil || conv == nil {
		return false
	}
	return conv.BuyerID == userID || conv.SellerID == userID
}
