package redis

import (
	"context"
	"encoding/json"

	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/redis/go-redis/v9"
)

// Change types carried on the events channel.
const (
	ChangeEvent   = "event_changed"
	ChangeSection = "section_changed"
)

type EventsPubSub struct {
	rdb     *redis.Client
	clock   clock.Clock
	channel string
}

func NewEventsPubSub(rdb *redis.Client, clk clock.Clock) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		clock:   clk,
		channel: ChannelEventsChanged(),
	}
}

// ChangeMessage tells subscribers that an event, or one of its sections,
// changed and should be re-read.
type ChangeMessage struct {
	Type      string `json:"type"`
	EventID   int64  `json:"event_id"`
	SectionID int64  `json:"section_id,omitempty"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *EventsPubSub) PublishEventChanged(ctx context.Context, eventID int64) error {
	return p.publish(ctx, ChangeMessage{Type: ChangeEvent, EventID: eventID})
}

func (p *EventsPubSub) PublishSectionChanged(ctx context.Context, eventID, sectionID int64) error {
	return p.publish(ctx, ChangeMessage{Type: ChangeSection, EventID: eventID, SectionID: sectionID})
}

func (p *EventsPubSub) publish(ctx context.Context, msg ChangeMessage) error {
	msg.TsUnix = p.clock.Now().Unix()

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe delivers change messages to handler until ctx is done. ready, if
// not nil, is closed once the subscription is active.
func (p *EventsPubSub) Subscribe(
	ctx context.Context,
	ready chan<- struct{},
	handler func(ctx context.Context, msg ChangeMessage),
) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg ChangeMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.EventID != 0 {
				handler(ctx, msg)
			}
		}
	}
}
