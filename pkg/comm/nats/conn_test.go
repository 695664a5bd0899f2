package nats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	testCases := []struct {
		topic, subject string
	}{
		{"32", "32"},
		{"v2x/diag", "v2x.diag"},
		{"/wme/req/", "wme.req"},
	}
	for _, tc := range testCases {
		t.Run(tc.topic, func(t *testing.T) {
			require.Equal(t, tc.subject, Subject(tc.topic))
		})
	}
}
