package service

import (
	"shopbot/pkg/domain/model"
)

type InteractionKind int

const (
	CommandInteraction InteractionKind = iota
	TextInteraction
	PhotoInteraction
	DocumentInteraction
	CallbackInteraction
)

func (k InteractionKind) String() string {
	switch k {
	case CommandInteraction:
		return "command"
	case TextInteraction:
		return "text"
	case PhotoInteraction:
		return "photo"
	case DocumentInteraction:
		return "document"
	case CallbackInteraction:
		return "callback"
	}
	return "unknown"
}

// Interaction is one inbound update, already stripped of transport details.
type Interaction struct {
	Caller model.Caller
	Kind   InteractionKind
	// Command is the command name without the leading slash.
	Command string
	// Text holds the message text, or the caption of a photo or document.
	Text     string
	PhotoID  string
	Document *model.Document
	// Data is the callback payload of a pressed button.
	Data string
}
