package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"
)

// Station identifies a running RSU or OBU on the broker.
type Station struct {
	Role string            `json:"role"`
	ID   string            `json:"id"`
	Meta map[string]string `json:"meta,omitempty"`
}

// Name returns role/id, the topic prefix of the station.
func (s Station) Name() string {
	return s.Role + "/" + s.ID
}

// MetaTopic is where the station announces itself (retained).
func (s Station) MetaTopic() string {
	return s.Name() + "/meta"
}

// Registrar announces a station with a retained meta message, cleared
// on shutdown or by the broker through the will when the link drops.
type Registrar struct {
	Queue   *Queue
	Station Station

	metaJSON []byte
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, st Station) (*Registrar, error) {
	meta, err := json.Marshal(&st)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL, "v2x:"+st.Name())
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+st.MetaTopic(), nil, 1, true)
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Station:  st,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	return r, nil
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Station.MetaTopic(), nil, 1, true).Wait()
	r.Queue.Close()
	return nil
}

func (r *Registrar) onConnected() {
	glog.V(1).Infof("announce %s", r.Station.Name())
	r.Queue.PubWith(r.Station.MetaTopic(), r.metaJSON, 1, true)
}
