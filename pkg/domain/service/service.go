package service

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"shopbot/pkg/domain/model"
)

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(event Event) error
}

// Channels addresses the public products channel and the private order log.
type Channels struct {
	Products model.ChatRef
	Orders   model.ChatRef
	Currency string
}

const fanOutLimit = 8

type notifier struct {
	messenger model.Messenger
}

func (n notifier) send(ctx context.Context, purpose string, msg model.OutgoingMessage) (model.MessageRef, model.Delivery) {
	ref, err := n.messenger.Send(ctx, msg)
	d := model.Delivery{To: msg.To, Purpose: purpose, Err: err}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"to":      msg.To.String(),
			"purpose": purpose,
		}).Warn("message delivery failed")
	}
	return ref, d
}

// broadcast sends every message concurrently and reports each outcome in input order.
func (n notifier) broadcast(ctx context.Context, purpose string, msgs []model.OutgoingMessage) model.DeliveryReport {
	report := make(model.DeliveryReport, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			_, report[i] = n.send(gctx, purpose, msg)
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// reply is a best-effort message to the acting caller.
func (n notifier) reply(ctx context.Context, caller model.Caller, text string) model.Delivery {
	_, d := n.send(ctx, "reply", model.OutgoingMessage{To: caller.Chat(), Text: text})
	return d
}

func dispatch(dispatcher EventDispatcher, event Event) {
	if err := dispatcher.Dispatch(event); err != nil {
		log.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
	}
}
