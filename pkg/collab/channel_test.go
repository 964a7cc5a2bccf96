package collab_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebase/notebase/pkg/collab"
	"github.com/notebase/notebase/pkg/editor"
	"github.com/notebase/notebase/pkg/models"
)

func drain(s *collab.Session) []*collab.Event {
	out := []*collab.Event{}
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPublishExcludesActor(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageID := models.NewPageID()
	alice := models.NewUserID()
	bob := models.NewUserID()

	sa := hub.Subscribe(pageID, alice, collab.JSONCodec{})
	sb := hub.Subscribe(pageID, bob, collab.JSONCodec{})
	drain(sa)
	drain(sb)

	hub.Publish(&collab.Event{
		Kind:    collab.KindBlockUpdated,
		PageID:  pageID,
		ActorID: alice,
		At:      time.Now(),
	})

	assert.Empty(t, drain(sa), "the originating actor does not hear its own change")
	got := drain(sb)
	require.Len(t, got, 1)
	assert.Equal(t, collab.KindBlockUpdated, got[0].Kind)
}

func TestJoinLeaveAnnouncements(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageID := models.NewPageID()
	alice := models.NewUserID()
	bob := models.NewUserID()

	sa := hub.Subscribe(pageID, alice, collab.JSONCodec{})
	sb := hub.Subscribe(pageID, bob, collab.JSONCodec{})

	joins := drain(sa)
	require.Len(t, joins, 1, "the earlier session hears the later join")
	assert.Equal(t, collab.KindUserJoined, joins[0].Kind)
	assert.Equal(t, bob, joins[0].ActorID)
	assert.Empty(t, drain(sb), "a new session does not hear its own join")

	hub.Unsubscribe(sb)
	left := drain(sa)
	require.Len(t, left, 1)
	assert.Equal(t, collab.KindUserLeft, left[0].Kind)
	assert.Equal(t, bob, left[0].ActorID)

	t.Run("unsubscribe twice", func(t *testing.T) {
		hub.Unsubscribe(sb)
		assert.Empty(t, drain(sa), "a repeated unsubscribe announces nothing")
	})
}

func TestSameUserSecondSessionHearsJoin(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageID := models.NewPageID()
	alice := models.NewUserID()

	s1 := hub.Subscribe(pageID, alice, collab.JSONCodec{})
	s2 := hub.Subscribe(pageID, alice, collab.JSONCodec{})

	joins := drain(s1)
	require.Len(t, joins, 1, "another tab of the same user hears the join")
	assert.Equal(t, collab.KindUserJoined, joins[0].Kind)
	assert.Equal(t, alice, joins[0].ActorID)
	assert.Empty(t, drain(s2), "the joining session itself hears nothing")

	hub.Unsubscribe(s2)
	left := drain(s1)
	require.Len(t, left, 1)
	assert.Equal(t, collab.KindUserLeft, left[0].Kind)
	assert.Equal(t, alice, left[0].ActorID)
}

func TestPerPageOrdering(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageID := models.NewPageID()
	actor := models.NewUserID()

	s := hub.Subscribe(pageID, models.NewUserID(), collab.JSONCodec{})
	for i := 0; i < 10; i++ {
		hub.Publish(&collab.Event{
			Kind:    collab.KindBlockUpdated,
			PageID:  pageID,
			ActorID: actor,
			Payload: models.JSONMap{"seq": i},
		})
	}

	got := drain(s)
	require.Len(t, got, 10)
	for i, ev := range got {
		assert.Equal(t, i, ev.Payload["seq"], "events arrive in publish order")
	}
}

func TestSlowConsumerDrops(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageID := models.NewPageID()
	actor := models.NewUserID()

	s := hub.Subscribe(pageID, models.NewUserID(), collab.JSONCodec{})
	total := 200
	for i := 0; i < total; i++ {
		hub.Publish(&collab.Event{
			Kind:    collab.KindBlockUpdated,
			PageID:  pageID,
			ActorID: actor,
		})
	}

	delivered := len(drain(s))
	assert.Less(t, delivered, total, "a full buffer sheds events instead of blocking")
	assert.Equal(t, uint64(total-delivered), s.Dropped())
}

func TestRoomIsolation(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageA := models.NewPageID()
	pageB := models.NewPageID()

	sa := hub.Subscribe(pageA, models.NewUserID(), collab.JSONCodec{})
	sb := hub.Subscribe(pageB, models.NewUserID(), collab.JSONCodec{})

	hub.Publish(&collab.Event{
		Kind:    collab.KindBlockUpdated,
		PageID:  pageA,
		ActorID: models.NewUserID(),
	})

	assert.Len(t, drain(sa), 1)
	assert.Empty(t, drain(sb), "events stay inside their page room")
}

func TestPresence(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	pageID := models.NewPageID()
	alice := models.NewUserID()

	s1 := hub.Subscribe(pageID, alice, collab.JSONCodec{})
	s2 := hub.Subscribe(pageID, alice, collab.JSONCodec{})
	assert.Len(t, hub.Presence(pageID), 1, "two sessions of one user count once")

	hub.Unsubscribe(s1)
	assert.Len(t, hub.Presence(pageID), 1)
	hub.Unsubscribe(s2)
	assert.Empty(t, hub.Presence(pageID))
}

func TestBridgePublishesChangeRecords(t *testing.T) {
	hub := collab.NewHub(zerolog.Nop())
	bridge := collab.NewBridge(hub)
	pageID := models.NewPageID()
	actor := models.NewUserID()
	blockID := models.NewBlockID()

	s := hub.Subscribe(pageID, models.NewUserID(), collab.JSONCodec{})
	bridge.Publish(context.Background(), editor.ChangeRecord{
		Op:        editor.OpUpdateContent,
		PageID:    pageID,
		BlockID:   blockID,
		ActorID:   actor,
		Payload:   models.JSONMap{"type": "text"},
		Timestamp: time.Now().UTC(),
	})

	got := drain(s)
	require.Len(t, got, 1)
	assert.Equal(t, collab.KindBlockUpdated, got[0].Kind)
	assert.Equal(t, string(editor.OpUpdateContent), got[0].Payload["op"])
	assert.Equal(t, blockID.String(), got[0].Payload["blockId"])
}

func TestCodecRoundTrip(t *testing.T) {
	ev := &collab.Event{
		Kind:    collab.KindCursorMoved,
		PageID:  models.NewPageID(),
		ActorID: models.NewUserID(),
		Payload: models.JSONMap{"blockId": models.NewBlockID().String(), "offset": float64(4)},
		At:      time.Now().UTC().Truncate(time.Second),
	}

	for _, codec := range []collab.Codec{collab.JSONCodec{}, collab.CBORCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Encode(ev)
			require.NoError(t, err)

			var back collab.Event
			require.NoError(t, codec.Decode(data, &back))
			assert.Equal(t, ev.Kind, back.Kind)
			assert.Equal(t, ev.PageID, back.PageID)
			assert.Equal(t, ev.ActorID, back.ActorID)
		})
	}
}

func TestNegotiateCodec(t *testing.T) {
	assert.IsType(t, collab.CBORCodec{}, collab.NegotiateCodec(collab.SubprotocolCBOR))
	assert.IsType(t, collab.JSONCodec{}, collab.NegotiateCodec(collab.SubprotocolJSON))
	assert.IsType(t, collab.JSONCodec{}, collab.NegotiateCodec(""), "unknown subprotocols fall back to json")
	assert.IsType(t, collab.JSONCodec{}, collab.NegotiateCodec(fmt.Sprintf("%s-v2", collab.SubprotocolJSON)))
}
