package gateway

import (
	"encoding/json"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common/errs"
)

// Envelope is the gateway's wire contract with the peer it forwards to
// (spec §4.4 step 3): the HTTP method, URI, selected headers, and body,
// plus a conversation id the reply is correlated by.
type Envelope struct {
	ConversationID string              `json:"conversationId"`
	Method         string              `json:"method"`
	URI            string              `json:"uri"`
	Headers        map[string][]string `json:"headers,omitempty"`
	Body           []byte              `json:"body,omitempty"`
	StatusCode     int                 `json:"statusCode,omitempty"`
}

// EncodeInto marshals e as JSON into blk, the agreed protocol-data
// section format.
func EncodeInto(e Envelope, blk *block.Block) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errs.Wrap(errs.ProtocolFailure, "gateway: failed to encode envelope", err)
	}
	if len(data) > blk.Capacity() {
		return errs.New(errs.ProtocolFailure, "gateway: envelope exceeds block capacity")
	}
	copy(blk.Bytes(), data)
	blk.SetSize(len(data))
	blk.SetOffset1(0)
	return nil
}

// DecodeEnvelope unmarshals blk's meaningful payload back into an Envelope.
func DecodeEnvelope(blk *block.Block) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(blk.Data(), &e); err != nil {
		return e, errs.Wrap(errs.ProtocolFailure, "gateway: failed to decode envelope", err)
	}
	return e, nil
}
