// Copyright 2026 OpenQuill Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"sync"
	"testing"
	"time"

	"github.com/openquill/quill/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testEventType event.EventType = "test.event"

func TestSubscribePublish(t *testing.T) {
	defer goleak.VerifyNone(t)
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()

	_, ch := bus.Subscribe(testEventType)
	bus.Publish(
		testEventType,
		event.NewEvent(testEventType, "payload"),
	)

	select {
	case evt := <-ch:
		assert.Equal(t, testEventType, evt.Type)
		assert.Equal(t, "payload", evt.Data)
		assert.False(t, evt.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishOnlyMatchingType(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()

	_, ch := bus.Subscribe(testEventType)
	bus.Publish(
		"other.event",
		event.NewEvent("other.event", nil),
	)

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event received: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeFunc(t *testing.T) {
	defer goleak.VerifyNone(t)
	bus := event.NewEventBus(nil, nil)

	var mu sync.Mutex
	received := []event.Event{}
	bus.SubscribeFunc(testEventType, func(evt event.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, evt)
	})

	bus.Publish(testEventType, event.NewEvent(testEventType, 1))
	bus.Publish(testEventType, event.NewEvent(testEventType, 2))
	// Stop drains the handler goroutine before returning
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, 1, received[0].Data)
	assert.Equal(t, 2, received[1].Data)
}

func TestUnsubscribe(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()

	subId, ch := bus.Subscribe(testEventType)
	bus.Unsubscribe(testEventType, subId)

	// channel is closed on unsubscribe
	_, open := <-ch
	assert.False(t, open)

	// publishing after unsubscribe must not panic
	bus.Publish(testEventType, event.NewEvent(testEventType, nil))
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()

	// no reader on this subscription
	_, _ = bus.Subscribe(testEventType)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range event.EventQueueSize + 10 {
			bus.Publish(
				testEventType,
				event.NewEvent(testEventType, nil),
			)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}

func TestPublishAfterStop(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	bus.Stop()
	bus.Stop() // idempotent

	bus.Publish(testEventType, event.NewEvent(testEventType, nil))
}
