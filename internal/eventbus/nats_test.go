package eventbus

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/airwave/internal/events"
)

func TestSubjectMapping(t *testing.T) {
	b := newBridge("airwave.events", events.NewBus(), zerolog.Nop())
	if got := b.subject(events.EventAnnouncement); got != "airwave.events.dj_announcement" {
		t.Fatalf("subject = %q", got)
	}
}

func TestHandleRelaysRemoteEvents(t *testing.T) {
	local := events.NewBus()
	sub := local.Subscribe(events.EventStationChanged)
	b := newBridge("airwave.events", local, zerolog.Nop())

	data, err := marshalNATSMessage(events.EventStationChanged, events.Payload{"station_id": "jazz"}, "other-node")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b.handle(&nats.Msg{Subject: b.subject(events.EventStationChanged), Data: data})

	select {
	case p := <-sub:
		if p["station_id"] != "jazz" {
			t.Fatalf("payload = %v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("remote event not relayed")
	}
}

func TestHandleDropsOwnAndMalformedMessages(t *testing.T) {
	local := events.NewBus()
	sub := local.Subscribe(events.EventStopped)
	b := newBridge("airwave.events", local, zerolog.Nop())

	own, err := marshalNATSMessage(events.EventStopped, events.Payload{}, b.nodeID)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	remote, err := marshalNATSMessage(events.EventStopped, events.Payload{}, "other-node")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name string
		msg  *nats.Msg
	}{
		{name: "own echo", msg: &nats.Msg{Subject: b.subject(events.EventStopped), Data: own}},
		{name: "garbage", msg: &nats.Msg{Subject: b.subject(events.EventStopped), Data: []byte("{nope")}},
		{name: "wrong subject", msg: &nats.Msg{Subject: "airwave.events.other", Data: remote}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.handle(tt.msg)
			select {
			case p := <-sub:
				t.Fatalf("unexpected relay: %v", p)
			default:
			}
		})
	}
}

func TestPublishWithoutConnectionStaysLocal(t *testing.T) {
	local := events.NewBus()
	sub := local.Subscribe(events.EventAudioState)
	b := newBridge("airwave.events", local, zerolog.Nop())

	b.Publish(events.EventAudioState, events.Payload{"state": "ducking"})

	select {
	case p := <-sub:
		if p["state"] != "ducking" {
			t.Fatalf("payload = %v", p)
		}
	default:
		t.Fatal("local subscriber missed event")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
