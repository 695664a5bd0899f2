package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/comm"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover collects the stations currently announced on the broker.
func Discover(ctx context.Context, brokerURL string, timeout time.Duration) ([]Station, error) {
	q, err := DialQueue(ctx, brokerURL, "")
	if err != nil {
		return nil, err
	}
	defer q.Close()

	resCh := make(chan Station, 1)
	sub := q.Sub("+/+/meta", Handler(func(topic string, payload []byte) {
		if st, ok := parseStation(topic, payload); ok {
			select {
			case resCh <- st:
			case <-time.After(time.Second):
			}
		}
	}))
	defer sub.Close()
	if err := WaitToken(ctx, sub.Token); err != nil {
		return nil, comm.WrapTransport("subscribe", brokerURL, err)
	}

	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	expire := time.After(timeout)
	found := make(map[string]Station)
	for {
		select {
		case st := <-resCh:
			found[st.Name()] = st
		case <-expire:
			return sortStations(found), nil
		case <-ctx.Done():
			return sortStations(found), ctx.Err()
		}
	}
}

// parseStation accepts role/id/meta topics with a JSON payload,
// an empty payload is a cleared announcement.
func parseStation(topic string, payload []byte) (Station, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || len(payload) == 0 {
		return Station{}, false
	}
	var st Station
	if err := json.Unmarshal(payload, &st); err != nil {
		glog.Warningf("invalid station meta on %q: %v", topic, err)
		return Station{}, false
	}
	st.Role, st.ID = items[0], items[1]
	return st, true
}

func sortStations(found map[string]Station) []Station {
	res := make([]Station, 0, len(found))
	for _, st := range found {
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}
