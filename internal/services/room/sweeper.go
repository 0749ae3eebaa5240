package room

import (
	"context"
	"log/slog"
	"time"

	"github.com/tobyv/guesswho/internal/model"
)

// Sweep evicts rooms older than the configured TTL regardless of state,
// to bound memory. Each candidate is checked and deleted under its own
// room lock so a sweep never races an in-flight join.
func (c *Controller) Sweep(ctx context.Context) ([]model.RoomCode, error) {
	codes, err := c.storage.ListRoomCodes(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := c.clock.Now().Add(-c.cfg.RoomTTL)

	var evicted []model.RoomCode
	for _, code := range codes {
		mu := c.locks.get(code)
		mu.Lock()

		room, err := c.storage.GetRoom(ctx, code)
		if err != nil {
			// Deleted between listing and locking
			mu.Unlock()
			continue
		}
		if !room.CreatedAt.Before(cutoff) {
			mu.Unlock()
			continue
		}

		if err := c.storage.DeleteRoom(ctx, code); err != nil {
			mu.Unlock()
			return evicted, err
		}
		mu.Unlock()
		c.locks.forget(code)
		evicted = append(evicted, code)

		c.logger.Info("idle room evicted",
			slog.String("code", string(code)),
			slog.Time("created_at", room.CreatedAt),
		)
	}

	return evicted, nil
}

// RunSweeper runs Sweep on a fixed period until the context is cancelled.
// onEvict, if non-nil, is called for each evicted room after its deletion
// (the broadcast layer uses this to tear down the room's hub).
func (c *Controller) RunSweeper(ctx context.Context, period time.Duration, onEvict func(model.RoomCode)) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	c.logger.Info("room sweeper started", slog.Duration("period", period))

	for {
		select {
		case <-ticker.C:
			evicted, err := c.Sweep(ctx)
			if err != nil {
				c.logger.Error("room sweep failed", slog.String("error", err.Error()))
				continue
			}
			if onEvict != nil {
				for _, code := range evicted {
					onEvict(code)
				}
			}
		case <-ctx.Done():
			c.logger.Info("room sweeper stopped")
			return
		}
	}
}
