package dispatch

import (
	"encoding/json"

	"github.com/Shopify/sarama"

	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/log"
)

// dispatchEvent is the telemetry record published for every dispatched
// block, named directly after the async block executor's operation
// state tuple (spec §4.8).
type dispatchEvent struct {
	OperationID  int32         `json:"operationId"`
	CommandID    int32         `json:"commandId"`
	SourcePeerID common.PeerID `json:"sourcePeerId"`
	TargetPeerID common.PeerID `json:"targetPeerId"`
	ChunkID      common.ChunkID `json:"chunkId"`
}

// TelemetryPublisher is an optional sarama-backed sink a broker can
// install on its BrokerDispatchBackend to publish a best-effort record
// of every block it dispatches, grounded in the teacher's own
// datasync/chaindatafetcher/kafka producer usage (repurposed here from
// chain events to dispatch events).
type TelemetryPublisher struct {
	topic    string
	producer sarama.AsyncProducer
	logger   *log.Logger
}

// NewTelemetryPublisher dials brokers with a sarama.AsyncProducer that
// returns both errors and successes: drain logs each send error instead
// of it being silently dropped, and successes are read and discarded so
// that channel never fills and stalls the producer.
func NewTelemetryPublisher(brokers []string, topic string) (*TelemetryPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Version = sarama.MaxVersion

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	p := &TelemetryPublisher{
		topic:    topic,
		producer: producer,
		logger:   log.New("dispatch.telemetry"),
	}
	go p.drain()
	go func() {
		for range producer.Successes() {
		}
	}()
	return p, nil
}

func (p *TelemetryPublisher) drain() {
	for err := range p.producer.Errors() {
		p.logger.Warn("dispatch telemetry publish failed", "err", err)
	}
}

// publish is fire-and-forget: a full producer input channel drops the
// event rather than blocking the dispatch path, since this is a
// tamper-evidence/observability side channel, not a delivery guarantee.
func (p *TelemetryPublisher) publish(ev dispatchEvent) {
	if p == nil {
		return
	}
	encoded, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("dispatch telemetry encode failed", "err", err)
		return
	}
	msg := &sarama.ProducerMessage{Topic: p.topic, Value: sarama.ByteEncoder(encoded)}
	select {
	case p.producer.Input() <- msg:
	default:
		p.logger.Warn("dispatch telemetry producer input full, dropping event")
	}
}

// Close shuts the underlying producer down.
func (p *TelemetryPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
