package collab

import (
	"encoding/json"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/notebase/notebase/pkg/models"
)

// Event kinds on the collaboration wire.
const (
	KindUserJoined   = "user-joined"
	KindUserLeft     = "user-left"
	KindBlockUpdated = "block-updated"
	KindCursorMoved  = "cursor-moved"
)

// Event is the envelope every collaboration message travels in, in both
// directions and both encodings.
type Event struct {
	Kind    string         `json:"kind" cbor:"kind"`
	PageID  models.PageID  `json:"pageId" cbor:"pageId"`
	ActorID models.UserID  `json:"actorId" cbor:"actorId"`
	Payload models.JSONMap `json:"payload,omitempty" cbor:"payload,omitempty"`
	At      time.Time      `json:"at" cbor:"at"`
}

// Codec encodes events for one session's negotiated wire format.
type Codec interface {
	Name() string
	Binary() bool
	Encode(ev *Event) ([]byte, error)
	Decode(data []byte, ev *Event) error
}

// Subprotocol names offered during the websocket handshake.
const (
	SubprotocolJSON = "notebase.json"
	SubprotocolCBOR = "notebase.cbor"
)

// Subprotocols lists the supported wire formats in preference order.
func Subprotocols() []string {
	return []string{SubprotocolCBOR, SubprotocolJSON}
}

// NegotiateCodec maps a handshake subprotocol to its codec. An empty or
// unknown subprotocol falls back to JSON.
func NegotiateCodec(subprotocol string) Codec {
	if subprotocol == SubprotocolCBOR {
		return CBORCodec{}
	}
	return JSONCodec{}
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return SubprotocolJSON }

func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(ev *Event) ([]byte, error) { return json.Marshal(ev) }

func (JSONCodec) Decode(data []byte, ev *Event) error { return json.Unmarshal(data, ev) }

type CBORCodec struct{}

func (CBORCodec) Name() string { return SubprotocolCBOR }

func (CBORCodec) Binary() bool { return true }

func (CBORCodec) Encode(ev *Event) ([]byte, error) { return cbor.Marshal(ev) }

func (CBORCodec) Decode(data []byte, ev *Event) error { return cbor.Unmarshal(data, ev) }
