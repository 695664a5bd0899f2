package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	paths []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, localPath string) error {
	if u.err != nil {
		return u.err
	}
	u.paths = append(u.paths, localPath)
	return nil
}

func TestPusher(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "person_detection.csv")
	require.NoError(t, os.WriteFile(fn, []byte("1,2024-05-01 10 00 00,1,0.80-0.80,1\n"), 0644))

	up := &fakeUploader{}
	p := &Pusher{Uploader: up, Path: fn}
	ctx := context.Background()
	require.NoError(t, p.Cycle(ctx))
	require.NoError(t, p.Cycle(ctx))
	require.Equal(t, []string{fn}, up.paths)

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(fn, later, later))
	up.err = errors.New("connection refused")
	require.Error(t, p.Cycle(ctx))
	up.err = nil
	require.NoError(t, p.Cycle(ctx))
	require.Equal(t, []string{fn, fn}, up.paths)
}

func TestPusherMissingFile(t *testing.T) {
	p := &Pusher{Uploader: &fakeUploader{}, Path: filepath.Join(t.TempDir(), "missing.csv")}
	require.Error(t, p.Cycle(context.Background()))
}
