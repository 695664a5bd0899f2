// Package diag encodes OBU diagnostic records as protobuf Structs so
// monitors can decode them without a shared schema.
package diag

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/wave/wsmp"
)

// DefaultTopic is where diagnostic records are published.
const DefaultTopic = "v2x/diag"

// Record describes a received WSM and how it was classified.
type Record struct {
	Station    string
	PSID       uint32
	ChannelID  uint8
	TxPower    int8
	PeerMAC    string
	DataLen    uint16
	Text       string
	Detected   bool
	DistanceKm float64
	Time       time.Time
}

// FromMessage builds a Record from a parsed message.
func FromMessage(station string, msg *wsmp.Message, detected bool, distanceKm float64, at time.Time) *Record {
	return &Record{
		Station:    station,
		PSID:       msg.PSID,
		ChannelID:  msg.ChannelID,
		TxPower:    msg.TxPower,
		PeerMAC:    string(msg.PeerMAC),
		DataLen:    msg.DataLen,
		Text:       msg.Text(),
		Detected:   detected,
		DistanceKm: distanceKm,
		Time:       at,
	}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func stringValue(v string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
}

func boolValue(v bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
}

// Struct converts r to a protobuf Struct.
func (r *Record) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"station":     stringValue(r.Station),
		"psid":        numberValue(float64(r.PSID)),
		"channel_id":  numberValue(float64(r.ChannelID)),
		"tx_power":    numberValue(float64(r.TxPower)),
		"peer_mac":    stringValue(r.PeerMAC),
		"data_len":    numberValue(float64(r.DataLen)),
		"text":        stringValue(r.Text),
		"detected":    boolValue(r.Detected),
		"distance_km": numberValue(r.DistanceKm),
		"time":        stringValue(r.Time.UTC().Format(time.RFC3339Nano)),
	}}
}

// RecordFromStruct converts back, missing fields stay zero.
func RecordFromStruct(s *structpb.Struct) (*Record, error) {
	r := &Record{}
	fields := s.GetFields()
	r.Station = fields["station"].GetStringValue()
	r.PSID = uint32(fields["psid"].GetNumberValue())
	r.ChannelID = uint8(fields["channel_id"].GetNumberValue())
	r.TxPower = int8(fields["tx_power"].GetNumberValue())
	r.PeerMAC = fields["peer_mac"].GetStringValue()
	r.DataLen = uint16(fields["data_len"].GetNumberValue())
	r.Text = fields["text"].GetStringValue()
	r.Detected = fields["detected"].GetBoolValue()
	r.DistanceKm = fields["distance_km"].GetNumberValue()
	if ts := fields["time"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q: %v", ts, err)
		}
		r.Time = t
	}
	return r, nil
}

// Encode serializes r in protobuf wire format.
func (r *Record) Encode() ([]byte, error) {
	return proto.Marshal(r.Struct())
}

// Decode parses a protobuf encoded Struct.
func Decode(b []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Format renders a Struct as JSON.
func Format(s *structpb.Struct, indent bool) (string, error) {
	m := jsonpb.Marshaler{}
	if indent {
		m.Indent = "  "
	}
	return m.MarshalToString(s)
}

// Publisher publishes records to Topic.
type Publisher struct {
	Publisher comm.Publisher
	Topic     string
}

// Publish encodes and publishes r.
func (p *Publisher) Publish(ctx context.Context, r *Record) error {
	b, err := r.Encode()
	if err != nil {
		return err
	}
	topic := p.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return p.Publisher.Publish(ctx, topic, b)
}
