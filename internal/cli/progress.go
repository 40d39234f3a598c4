package cli

import (
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/go-vault/model-cache/hub"
)

// watchProgress polls p every tick and mirrors its counters into bar until
// done is closed. It runs in its own goroutine; the caller is responsible
// for closing done exactly once after the operation it is watching
// finishes.
func watchProgress(p *hub.Progress, bar *progressbar.ProgressBar, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			total, completed, _ := p.Snapshot()
			if total > 0 {
				bar.ChangeMax64(total)
			}
			bar.Set64(completed)
			return
		case <-ticker.C:
			total, completed, _ := p.Snapshot()
			if total > 0 {
				bar.ChangeMax64(total)
			}
			bar.Set64(completed)
		}
	}
}
