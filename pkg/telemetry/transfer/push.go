package transfer

import (
	"context"
	"os"
	"time"

	"github.com/golang/glog"
)

// Uploader copies a local file to a remote station.
type Uploader interface {
	Upload(ctx context.Context, localPath string) error
}

// Pusher uploads Path whenever its modification time changes.
type Pusher struct {
	Uploader Uploader
	Path     string

	lastMod time.Time
}

// Cycle implements framework.Cycler.
func (p *Pusher) Cycle(ctx context.Context) error {
	info, err := os.Stat(p.Path)
	if err != nil {
		return err
	}
	if mod := info.ModTime(); !mod.After(p.lastMod) {
		return nil
	}
	if err := p.Uploader.Upload(ctx, p.Path); err != nil {
		return err
	}
	p.lastMod = info.ModTime()
	glog.V(1).Infof("pushed %s (%d bytes)", p.Path, info.Size())
	return nil
}
