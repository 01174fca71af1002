package ws

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgInput    uint8 = 0x01
	MsgSettings uint8 = 0x02
	MsgControl  uint8 = 0x03
	MsgPing     uint8 = 0x04
)

// Server -> Client message types
const (
	MsgSnapshot uint8 = 0x81
	MsgWelcome  uint8 = 0x82
	MsgEvent    uint8 = 0x83
	MsgError    uint8 = 0x84
	MsgPong     uint8 = 0x86
)

// Control actions carried by MsgControl.
const (
	ActionStart    = "start"
	ActionContinue = "continue"
	ActionRestart  = "restart"
	ActionPause    = "pause"
	ActionResume   = "resume"
)

// Message is a decoded envelope. Payload stays in the wire encoding of the
// codec that produced it.
type Message struct {
	Type    uint8
	Tick    uint32
	Payload []byte
}

type ControlPayload struct {
	Action string `json:"action" msgpack:"action"`
}

type PingPayload struct {
	ClientTime uint64 `json:"clientTime" msgpack:"clientTime"`
}

type PongPayload struct {
	ClientTime uint64 `json:"clientTime" msgpack:"clientTime"`
	ServerTime uint64 `json:"serverTime" msgpack:"serverTime"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId" msgpack:"sessionId"`
	MatchID   string `json:"matchId" msgpack:"matchId"`
	Codec     string `json:"codec" msgpack:"codec"`
	TickRate  int    `json:"tickRate" msgpack:"tickRate"`
}

type ErrorPayload struct {
	Message string `json:"message" msgpack:"message"`
}

// Codec frames envelopes and payloads. JSON travels as text frames and
// msgpack as binary frames.
type Codec interface {
	Name() string
	Frame() websocket.MessageType
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Encode(msg Message) ([]byte, error)
	Decode(data []byte) (Message, error)
}

type jsonEnvelope struct {
	Type    uint8           `json:"type"`
	Tick    uint32          `json:"tick"`
	Payload json.RawMessage `json:"payload"`
}

type JSONCodec struct{}

func (JSONCodec) Name() string                       { return "json" }
func (JSONCodec) Frame() websocket.MessageType       { return websocket.MessageText }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSONCodec) Encode(msg Message) ([]byte, error) {
	return json.Marshal(jsonEnvelope{Type: msg.Type, Tick: msg.Tick, Payload: msg.Payload})
}

func (JSONCodec) Decode(data []byte) (Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, err
	}
	return Message{Type: env.Type, Tick: env.Tick, Payload: env.Payload}, nil
}

type msgpackEnvelope struct {
	Type    uint8              `msgpack:"type"`
	Tick    uint32             `msgpack:"tick"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

type MsgpackCodec struct{}

func (MsgpackCodec) Name() string                       { return "msgpack" }
func (MsgpackCodec) Frame() websocket.MessageType       { return websocket.MessageBinary }
func (MsgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func (MsgpackCodec) Encode(msg Message) ([]byte, error) {
	payload := msg.Payload
	if len(payload) == 0 {
		payload = []byte{msgpackNil}
	}
	return msgpack.Marshal(&msgpackEnvelope{Type: msg.Type, Tick: msg.Tick, Payload: payload})
}

func (MsgpackCodec) Decode(data []byte) (Message, error) {
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Message{}, err
	}
	return Message{Type: env.Type, Tick: env.Tick, Payload: env.Payload}, nil
}

const msgpackNil = 0xc0

// ParseCodec resolves a codec by name. An empty name selects JSON.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

func NewMessage(c Codec, typ uint8, tick uint32, payload any) (Message, error) {
	data, err := c.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: typ, Tick: tick, Payload: data}, nil
}
