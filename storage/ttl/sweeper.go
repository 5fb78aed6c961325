package ttl

import (
	"context"
	"log"
	"time"
)

// DefaultSweepInterval is how often RunSweeper purges expired entries when
// no interval is configured.
const DefaultSweepInterval = time.Hour

// RunSweeper calls Sweep every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, s *Store, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("ttl: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("ttl: swept %d expired entries", n)
			}
		}
	}
}
