package service

import (
	"context"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/churn/internal/config"
	"github.com/gyaneshwarpardhi/churn/internal/logging"
)

// Watch reloads the artifacts whenever one of the files is written. Events
// that arrive within settle of each other trigger a single reload, so a
// deploy that replaces all three files is loaded once. A failed reload is
// logged and the previous snapshot stays in service.
func (s *Service) Watch(ctx context.Context, settle time.Duration) (stop func(), err error) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if err := s.Reload(ctx); err != nil {
			logging.L(ctx).Warn("artifact reload skipped", "err", err)
			return
		}
		logging.L(ctx).Info("artifacts hot-reloaded")
	}

	stopFiles, err := config.WatchFiles(s.Paths().List(), func(path string) {
		logging.L(ctx).Debug("artifact changed", "path", path)
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(settle, reload)
	})
	if err != nil {
		return nil, err
	}

	return func() {
		stopFiles()
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}, nil
}
