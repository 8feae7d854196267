package model

import (
	"context"
	"strconv"
)

// Caller is the chat user behind an interaction.
type Caller struct {
	ID        int64
	Username  string
	FirstName string
}

// DisplayName renders the caller the way order messages mention buyers.
func (c Caller) DisplayName() string {
	if c.Username != "" {
		return "@" + c.Username
	}
	if c.FirstName != "" {
		return c.FirstName
	}
	return strconv.FormatInt(c.ID, 10)
}

func (c Caller) Chat() ChatRef {
	return ChatRef{ID: c.ID}
}

// ChatRef addresses a private chat by id or a channel by @username.
type ChatRef struct {
	ID       int64
	Username string
}

func (c ChatRef) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

type MessageRef struct {
	Chat      ChatRef
	MessageID int
}

func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

type Button struct {
	Text string
	Data string
	URL  string
}

type Keyboard [][]Button

type OutgoingMessage struct {
	To       ChatRef
	Text     string
	PhotoID  string
	HTML     bool
	Keyboard Keyboard
}

// Document is a named file sent to or received from a chat.
type Document struct {
	Name    string
	Content []byte
}

type Messenger interface {
	Send(ctx context.Context, msg OutgoingMessage) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string) error
	Delete(ctx context.Context, ref MessageRef) error
	SendDocument(ctx context.Context, to ChatRef, doc Document) error
}

// Delivery is the outcome of one outbound message.
type Delivery struct {
	To      ChatRef
	Purpose string
	Err     error
}

type DeliveryReport []Delivery

func (r DeliveryReport) Failed() []Delivery {
	var failed []Delivery
	for _, d := range r {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

func (r DeliveryReport) OK() bool {
	return len(r.Failed()) == 0
}
