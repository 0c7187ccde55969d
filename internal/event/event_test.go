package event_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoquiz/internal/event"
)

type named string

func (n named) Name() string { return string(n) }

func TestBus_PublishSubscribe(t *testing.T) {
	type subscriber struct {
		name        string
		subscribeTo []string
	}

	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber only receives events it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{named("e1"), named("e2")},
					subscribers: []subscriber{
						{name: "s1", subscribeTo: []string{"e1"}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("e1")}, out.received["s1"])
			},
		},

		"a subscriber receives every published occurrence": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{named("e1"), named("e1")},
					subscribers: []subscriber{
						{name: "s1", subscribeTo: []string{"e1"}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("e1"), named("e1")}, out.received["s1"])
			},
		},

		"an event is dispatched to all subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{named("e1")},
					subscribers: []subscriber{
						{name: "s1", subscribeTo: []string{"e1"}},
						{name: "s2", subscribeTo: []string{"e1", "e2"}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{named("e1")}, out.received["s1"])
				assert.ElementsMatch(t, []event.Event{named("e1")}, out.received["s2"])
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in, out := tt.arrange(), outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()

			var mu sync.Mutex
			for _, s := range in.subscribers {
				s := s
				for _, name := range s.subscribeTo {
					b.Subscribe(name, func(_ context.Context, e event.Event) error {
						mu.Lock()
						out.received[s.name] = append(out.received[s.name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}

			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	b := event.NewBus()

	b.Subscribe("e1", func(context.Context, event.Event) error {
		panic("boom")
	})

	var mu sync.Mutex
	var got []event.Event
	b.Subscribe("e1", func(_ context.Context, e event.Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), named("e1"))
	b.Stop()

	require.Len(t, got, 1)
}
