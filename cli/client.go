package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/talentrelay/internal/protocol"
)

// Client is a WebSocket client of the relay.
type Client struct {
	conn *websocket.Conn
	out  io.Writer
	done chan struct{}
}

// NewClient connects to the relay. A non-empty token pins the user id server side.
func NewClient(addr, token string, out io.Writer) (*Client, error) {
	if token != "" {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		addr = u.String()
	}

	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		out:  out,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// Auth sends an auth frame and waits for auth-ok.
func (c *Client) Auth(msg protocol.AuthMessage) (*protocol.AuthOKMessage, error) {
	msg.Type = protocol.TypeAuth
	if err := c.conn.WriteJSON(msg); err != nil {
		return nil, fmt.Errorf("write auth: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read auth-ok: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("unmarshal auth-ok: %w", err)
	}
	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return nil, fmt.Errorf("auth failed: %s - %s", errMsg.Code, errMsg.Message)
	}
	if base.Type != protocol.TypeAuthOK {
		return nil, fmt.Errorf("expected auth-ok, got: %s", base.Type)
	}

	var ok protocol.AuthOKMessage
	if err := json.Unmarshal(data, &ok); err != nil {
		return nil, fmt.Errorf("unmarshal auth-ok: %w", err)
	}
	return &ok, nil
}

// JoinSession sends a join-session frame. The session-users reply is printed
// by ReadMessages.
func (c *Client) JoinSession(sessionID string, userID int64) error {
	return c.conn.WriteJSON(protocol.JoinSessionMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeJoinSession},
		SessionID:   sessionID,
		UserID:      userID,
	})
}

// SendChat sends a chat line.
func (c *Client) SendChat(content string) error {
	return c.conn.WriteJSON(protocol.ChatInMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeMessage},
		Content:     content,
	})
}

// ReadMessages reads and prints frames until the connection closes.
func (c *Client) ReadMessages() error {
	for {
		select {
		case <-c.done:
			return nil
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		if err := c.print(data); err != nil {
			fmt.Fprintf(c.out, "unreadable frame: %v\n", err)
		}
	}
}

func (c *Client) print(data []byte) error {
	var frame map[string]interface{}
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	formatted, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n[%v] Received:\n%s\n", frame["type"], formatted)
	return nil
}
