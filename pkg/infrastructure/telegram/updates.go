package telegram

import (
	"context"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	appservice "shopbot/pkg/application/service"
	"shopbot/pkg/domain/model"
)

// maxUploadSize bounds documents downloaded for /upload_json.
const maxUploadSize = 1 << 20

// Dispatcher turns Bot API updates into interactions for the assistant.
type Dispatcher struct {
	bot        *tgbotapi.BotAPI
	assistant  appservice.Assistant
	httpClient *http.Client
	workers    int
}

func NewDispatcher(bot *tgbotapi.BotAPI, assistant appservice.Assistant, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{bot: bot, assistant: assistant, httpClient: http.DefaultClient, workers: workers}
}

// RegisterWebhook points the bot at url.
func (d *Dispatcher) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return errors.Wrapf(err, "webhook url %q", url)
	}
	_, err = d.bot.Request(wh)
	return errors.Wrap(err, "set webhook")
}

// HandleWebhook decodes one update from r and handles it. Only a malformed
// request yields an error; handling failures are logged.
func (d *Dispatcher) HandleWebhook(ctx context.Context, r *http.Request) error {
	update, err := d.bot.HandleUpdate(r)
	if err != nil {
		return err
	}
	d.HandleUpdate(ctx, *update)
	return nil
}

// Poll reads updates with long polling until ctx is cancelled.
func (d *Dispatcher) Poll(ctx context.Context) error {
	if _, err := d.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return errors.Wrap(err, "delete webhook")
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := d.bot.GetUpdatesChan(cfg)

	var g errgroup.Group
	g.SetLimit(d.workers)
	defer g.Wait()

	for {
		select {
		case <-ctx.Done():
			d.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.Go(func() error {
				d.HandleUpdate(ctx, update)
				return nil
			})
		}
	}
}

func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	in, ok := d.toInteraction(ctx, update)
	if !ok {
		return
	}
	if q := update.CallbackQuery; q != nil {
		if _, err := d.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			log.WithError(err).Debug("failed to answer callback")
		}
	}
	if err := d.assistant.Handle(ctx, in); err != nil {
		log.WithError(err).WithField("update_id", update.UpdateID).Error("update handling failed")
	}
}

func (d *Dispatcher) toInteraction(ctx context.Context, update tgbotapi.Update) (appservice.Interaction, bool) {
	if q := update.CallbackQuery; q != nil && q.From != nil {
		return appservice.Interaction{
			Caller: caller(q.From),
			Kind:   appservice.CallbackInteraction,
			Data:   q.Data,
		}, true
	}

	m := update.Message
	if m == nil || m.From == nil {
		return appservice.Interaction{}, false
	}
	in := appservice.Interaction{Caller: caller(m.From)}
	switch {
	case m.IsCommand():
		in.Kind = appservice.CommandInteraction
		in.Command = m.Command()
		in.Text = m.CommandArguments()
	case m.Document != nil:
		in.Kind = appservice.DocumentInteraction
		in.Text = m.Caption
		content, err := d.download(ctx, m.Document.FileID)
		if err != nil {
			log.WithError(err).WithField("file", m.Document.FileName).Warn("document download failed")
			break
		}
		in.Document = &model.Document{Name: m.Document.FileName, Content: content}
	case len(m.Photo) > 0:
		in.Kind = appservice.PhotoInteraction
		in.PhotoID = m.Photo[len(m.Photo)-1].FileID
		in.Text = m.Caption
	case m.Text != "":
		in.Kind = appservice.TextInteraction
		in.Text = m.Text
	default:
		return appservice.Interaction{}, false
	}
	return in, true
}

func (d *Dispatcher) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := d.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve file url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download file")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download file: status %d", resp.StatusCode)
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	if len(content) > maxUploadSize {
		return nil, errors.Errorf("file larger than %d bytes", maxUploadSize)
	}
	return content, nil
}

func caller(u *tgbotapi.User) model.Caller {
	return model.Caller{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}
