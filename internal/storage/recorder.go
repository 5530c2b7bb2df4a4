package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tgchannel/internal/channel"
	"tgchannel/internal/eventbus"
	"tgchannel/internal/telegram"
	logx "tgchannel/pkg/logx"
)

const recordTimeout = 5 * time.Second

// Recorder persists notification.failed events published on the bus.
//
// It subscribes on construction so events published before Run starts are
// buffered rather than lost.
type Recorder struct {
	store    Store
	log      logx.Logger
	onStored func()

	events <-chan eventbus.Event
	unsub  func()
}

func NewRecorder(store Store, bus eventbus.Bus, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Recorder{store: store, log: log, unsub: func() {}}
	if store != nil && bus != nil {
		r.events, r.unsub = bus.SubscribeTopic(64, eventbus.TypeNotificationFailed)
	}
	return r
}

// Close detaches the recorder from the bus.
func (r *Recorder) Close() { r.unsub() }

// OnStored registers a callback run after each persisted record.
func (r *Recorder) OnStored(fn func()) { r.onStored = fn }

// Run consumes failure events until ctx is done, then drains what is
// already buffered so a failure published just before shutdown is kept.
func (r *Recorder) Run(ctx context.Context) error {
	if r.events == nil {
		<-ctx.Done()
		return nil
	}
	events := r.events
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-events:
					if !ok {
						return nil
					}
					r.handle(ctx, e)
				default:
					return nil
				}
			}
		case e, ok := <-events:
			if !ok {
				return nil
			}
			r.handle(ctx, e)
		}
	}
}

func (r *Recorder) handle(ctx context.Context, e eventbus.Event) {
	ev, ok := e.Data.(channel.NotificationFailed)
	if !ok {
		r.log.Warn("unexpected failure event payload", logx.String("type", fmt.Sprintf("%T", e.Data)))
		return
	}
	rec := FailureRecordOf(ev)
	rec.At = e.Time

	// A failure already reported is stored even during shutdown.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.store.AppendFailure(ctx, rec); err != nil {
		r.log.Warn("failure record not stored", logx.String("chat_id", rec.ChatID), logx.Err(err))
		return
	}
	if r.onStored != nil {
		r.onStored()
	}
}

// FailureRecordOf flattens a failure event into a storable record.
func FailureRecordOf(ev channel.NotificationFailed) FailureRecord {
	rec := FailureRecord{Channel: ev.Channel}
	if ev.Data.To != nil {
		rec.ChatID = fmt.Sprint(ev.Data.To)
	}
	if ev.Data.Err != nil {
		rec.Error = ev.Data.Err.Error()
		var se *telegram.SendError
		if errors.As(ev.Data.Err, &se) {
			rec.Method = se.Method
		}
	}
	if len(ev.Data.Request) > 0 {
		if b, err := json.Marshal(ev.Data.Request); err == nil {
			rec.Request = string(b)
		}
	}
	return rec
}
