// Package protocol defines the WebSocket frames exchanged between clients and the relay.
package protocol

import "encoding/json"

// Frame types from client to relay
const (
	TypeAuth        = "auth"
	TypeJoinSession = "join-session"
)

// Frame types from relay to client
const (
	TypeAuthOK       = "auth-ok"
	TypeUserJoined   = "user-joined"
	TypeSessionUsers = "session-users"
	TypeUserLeft     = "user-left"
	TypeError        = "error"
)

// Frame types relayed in both directions
const (
	TypeSignal  = "signal"
	TypeTyping  = "typing"
	TypeMessage = "message"
)

// BaseMessage contains the field shared by every frame.
type BaseMessage struct {
	Type string `json:"type"`
}

// AuthMessage binds identity attributes to the sending connection.
type AuthMessage struct {
	BaseMessage
	UserID   int64 `json:"userId,omitempty"`
	TalentID int64 `json:"talentId,omitempty"`
	ClubID   int64 `json:"clubId,omitempty"`
	AgentID  int64 `json:"agentId,omitempty"`
	DoctorID int64 `json:"doctorId,omitempty"`
}

// AuthOKMessage echoes the identity actually bound.
type AuthOKMessage struct {
	BaseMessage
	UserID   int64 `json:"userId,omitempty"`
	TalentID int64 `json:"talentId,omitempty"`
	ClubID   int64 `json:"clubId,omitempty"`
	AgentID  int64 `json:"agentId,omitempty"`
	DoctorID int64 `json:"doctorId,omitempty"`
	Verified bool  `json:"verified"`
}

// JoinSessionMessage is sent by a client entering a video session.
type JoinSessionMessage struct {
	BaseMessage
	SessionID string `json:"sessionId"`
	UserID    int64  `json:"userId"`
}

// UserJoinedMessage notifies existing peers of a newcomer.
type UserJoinedMessage struct {
	BaseMessage
	UserID    int64  `json:"userId"`
	SessionID string `json:"sessionId"`
}

// SessionUsersMessage lists the other peers already in the session.
type SessionUsersMessage struct {
	BaseMessage
	Users     []int64 `json:"users"`
	SessionID string  `json:"sessionId"`
}

// UserLeftMessage notifies peers that a connection closed.
type UserLeftMessage struct {
	BaseMessage
	UserID    int64  `json:"userId"`
	SessionID string `json:"sessionId"`
}

// SignalMessage carries an opaque peer-to-peer payload (SDP, ICE candidates).
type SignalMessage struct {
	BaseMessage
	UserID     int64           `json:"userId"`
	ReceiverID int64           `json:"receiverId,omitempty"`
	Signal     json.RawMessage `json:"signal"`
	SessionID  string          `json:"sessionId"`
}

// TypingMessage is a typing indicator.
type TypingMessage struct {
	BaseMessage
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
	Role       string `json:"role,omitempty"`
}

// ChatInMessage is a chat line sent by a client.
type ChatInMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// MessageSender is the display stub attached to chat frames.
type MessageSender struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ChatOutMessage is a persisted chat line broadcast by the relay.
type ChatOutMessage struct {
	BaseMessage
	ID         int64         `json:"id"`
	SenderID   int64         `json:"senderId"`
	ReceiverID int64         `json:"receiverId"`
	Content    string        `json:"content"`
	Timestamp  int64         `json:"timestamp"` // Unix milliseconds
	Sender     MessageSender `json:"sender"`
}

// ErrorMessage is sent when a frame cannot be processed.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeUnknownType    = "unknown_type"
	ErrorCodePersistFailed  = "persist_failed"
)
