package progress

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/omakasem/draftstream/types"
)

// Codec names.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Codec encodes progress snapshots for the wire.
type Codec interface {
	Name() string
	Marshal(p types.Progress) ([]byte, error)
	Unmarshal(data []byte, p *types.Progress) error
}

// CodecFor returns the codec registered under name. Empty selects JSON.
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return jsonCodec{}, nil
	case CodecMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown progress codec %q (want json or msgpack)", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecJSON }

func (jsonCodec) Marshal(p types.Progress) ([]byte, error) { return json.Marshal(p) }

func (jsonCodec) Unmarshal(data []byte, p *types.Progress) error { return json.Unmarshal(data, p) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CodecMsgpack }

func (msgpackCodec) Marshal(p types.Progress) ([]byte, error) { return msgpack.Marshal(p) }

func (msgpackCodec) Unmarshal(data []byte, p *types.Progress) error {
	return msgpack.Unmarshal(data, p)
}
