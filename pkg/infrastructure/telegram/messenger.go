package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

// Messenger sends domain messages through the Bot API.
type Messenger struct {
	bot *tgbotapi.BotAPI
}

var _ model.Messenger = (*Messenger)(nil)

func NewMessenger(bot *tgbotapi.BotAPI) *Messenger {
	return &Messenger{bot: bot}
}

func (m *Messenger) Send(ctx context.Context, msg model.OutgoingMessage) (model.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return model.MessageRef{}, err
	}
	sent, err := m.bot.Send(buildChattable(msg))
	if err != nil {
		return model.MessageRef{}, errors.Wrapf(err, "send to %s", msg.To)
	}
	return model.MessageRef{Chat: msg.To, MessageID: sent.MessageID}, nil
}

func (m *Messenger) EditText(ctx context.Context, ref model.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewEditMessageText(ref.Chat.ID, ref.MessageID, text)
	cfg.ChannelUsername = ref.Chat.Username
	_, err := m.bot.Request(cfg)
	return errors.Wrapf(err, "edit message %d in %s", ref.MessageID, ref.Chat)
}

func (m *Messenger) Delete(ctx context.Context, ref model.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewDeleteMessage(ref.Chat.ID, ref.MessageID)
	cfg.ChannelUsername = ref.Chat.Username
	_, err := m.bot.Request(cfg)
	return errors.Wrapf(err, "delete message %d in %s", ref.MessageID, ref.Chat)
}

func (m *Messenger) SendDocument(ctx context.Context, to model.ChatRef, doc model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewDocument(to.ID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Content})
	cfg.ChannelUsername = to.Username
	_, err := m.bot.Send(cfg)
	return errors.Wrapf(err, "send %s to %s", doc.Name, to)
}

// buildChattable picks a photo or a text message depending on whether a photo is attached.
func buildChattable(msg model.OutgoingMessage) tgbotapi.Chattable {
	parseMode := ""
	if msg.HTML {
		parseMode = tgbotapi.ModeHTML
	}

	if msg.PhotoID != "" {
		cfg := tgbotapi.NewPhoto(msg.To.ID, tgbotapi.FileID(msg.PhotoID))
		cfg.ChannelUsername = msg.To.Username
		cfg.Caption = msg.Text
		cfg.ParseMode = parseMode
		if markup, ok := inlineKeyboard(msg.Keyboard); ok {
			cfg.ReplyMarkup = markup
		}
		return cfg
	}

	cfg := tgbotapi.NewMessage(msg.To.ID, msg.Text)
	cfg.ChannelUsername = msg.To.Username
	cfg.ParseMode = parseMode
	if markup, ok := inlineKeyboard(msg.Keyboard); ok {
		cfg.ReplyMarkup = markup
	}
	return cfg
}

func inlineKeyboard(keyboard model.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(keyboard) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
