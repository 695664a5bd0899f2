package logfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	w := &Writer{Path: filepath.Join(t.TempDir(), "OBU_RX.txt")}
	require.NoError(t, w.Append("Detected:1 Pedestrian Detected"))
	require.NoError(t, w.Append("Detected:0 No Pedestrian Detected\n"))
	content, err := os.ReadFile(w.Path)
	require.NoError(t, err)
	require.Equal(t, "Detected:1 Pedestrian Detected\nDetected:0 No Pedestrian Detected\n", string(content))
}

func TestAppendFailure(t *testing.T) {
	err := Append(filepath.Join(t.TempDir(), "missing", "RSU_TX.txt"), "x")
	require.Error(t, err)
}
