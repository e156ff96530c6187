package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/councilmesh/core"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	b := New()

	var got []core.Message
	b.Subscribe(core.User, func(msg core.Message) error {
		got = append(got, msg)
		return nil
	})

	id, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "hello"))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, core.Analyst, got[0].Sender)
	assert.Equal(t, core.User, got[0].Recipient)
	assert.Equal(t, core.KindNotification, got[0].Kind)
	assert.Equal(t, "note", got[0].Payload.Type)

	var payload core.TextData
	require.NoError(t, got[0].Payload.Decode(&payload))
	assert.Equal(t, "hello", payload.Text)
}

func TestBus_LateSubscriberMissesEarlierMessages(t *testing.T) {
	b := New()

	_, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "early"))
	require.NoError(t, err)

	delivered := 0
	b.Subscribe(core.User, func(core.Message) error {
		delivered++
		return nil
	})

	assert.Zero(t, delivered)

	_, err = b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "late"))
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}

func TestBus_BroadcastRecipientReachesAllHandlers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	seen := map[core.Participant]int{}

	for _, p := range []core.Participant{core.Analyst, core.Skeptic, core.User} {
		recipient := p
		b.Subscribe(recipient, func(core.Message) error {
			mu.Lock()
			seen[recipient]++
			mu.Unlock()
			return nil
		})
	}

	_, err := b.Publish(core.Synthesizer, core.All, core.KindNotification, core.TextFrame("note", "to everyone"))
	require.NoError(t, err)

	assert.Equal(t, map[core.Participant]int{core.Analyst: 1, core.Skeptic: 1, core.User: 1}, seen)
}

func TestBus_AllSubscriberSeesDirectedMessages(t *testing.T) {
	b := New()

	delivered := 0
	b.Subscribe(core.All, func(core.Message) error {
		delivered++
		return nil
	})

	_, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "direct"))
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}

func TestBus_AcknowledgeExactlyOnce(t *testing.T) {
	b := New()

	id, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "ack me"))
	require.NoError(t, err)

	msg, ok := b.Get(id)
	require.True(t, ok)
	assert.False(t, msg.Acknowledged)

	require.NoError(t, b.Acknowledge(id))

	msg, ok = b.Get(id)
	require.True(t, ok)
	assert.True(t, msg.Acknowledged)

	err = b.Acknowledge(id)
	assert.ErrorIs(t, err, ErrAlreadyAcknowledged)
}

func TestBus_AcknowledgeUnknownID(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Acknowledge("nope"), ErrMessageNotFound)
}

func TestBus_FailedHandlerLeavesMessageUnacknowledged(t *testing.T) {
	b := New()

	b.Subscribe(core.User, func(core.Message) error {
		return errors.New("handler exploded")
	})

	id, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "boom"))
	require.NoError(t, err) // publish succeeds regardless of handler failures

	msg, ok := b.Get(id)
	require.True(t, ok)
	assert.False(t, msg.Acknowledged)
}

func TestBus_SubscriptionCancel(t *testing.T) {
	b := New()

	delivered := 0
	sub := b.Subscribe(core.User, func(core.Message) error {
		delivered++
		return nil
	})

	sub.Cancel()
	sub.Cancel() // idempotent

	_, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "gone"))
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestBus_CorrelationID(t *testing.T) {
	b := New()

	reqID, err := b.Publish(core.User, core.Analyst, core.KindRequest, core.TextFrame("ask", "question"))
	require.NoError(t, err)

	respID, err := b.Publish(core.Analyst, core.User, core.KindResponse, core.TextFrame("answer", "reply"), func(o *PublishOptions) {
		o.CorrelationID = reqID
	})
	require.NoError(t, err)

	msg, ok := b.Get(respID)
	require.True(t, ok)
	assert.Equal(t, reqID, msg.CorrelationID)
}

func TestBus_RetentionEvictsOldest(t *testing.T) {
	b := New(func(o *Options) { o.Retention = 2 })

	first, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "1"))
	require.NoError(t, err)
	_, err = b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "2"))
	require.NoError(t, err)
	third, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "3"))
	require.NoError(t, err)

	_, ok := b.Get(first)
	assert.False(t, ok)
	_, ok = b.Get(third)
	assert.True(t, ok)
	assert.Equal(t, 2, b.Len())
}

func TestBus_InvalidIdentities(t *testing.T) {
	b := New()

	_, err := b.Publish(core.Participant("ghost"), core.User, core.KindNotification, core.TextFrame("note", "x"))
	assert.Error(t, err)

	_, err = b.Publish(core.Analyst, core.Participant("ghost"), core.KindNotification, core.TextFrame("note", "x"))
	assert.Error(t, err)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	b := New()

	var mu sync.Mutex
	delivered := 0
	b.Subscribe(core.User, func(core.Message) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Publish(core.Analyst, core.User, core.KindNotification, core.TextFrame("note", "concurrent"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, delivered)
	assert.Equal(t, 50, b.Len())
}
