package rewards

import (
	"context"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"

	"github.com/tokenized/logger"
)

// Sweeper owns the two periodic bulk transitions that progress the withdrawal
// lifecycle. The loops are independent and coordinate only through the shared
// ledger. Sweep failures are logged and waited out; the next tick retries
// naturally. No caller is ever notified.
type Sweeper struct {
	masterDB *db.DB

	promoteInterval  time.Duration
	completeInterval time.Duration
	completeAge      time.Duration

	now func() time.Time
}

// NewSweeper returns a sweeper over the master database handle.
func NewSweeper(masterDB *db.DB, promoteInterval, completeInterval,
	completeAge time.Duration) *Sweeper {

	return &Sweeper{
		masterDB:         masterDB,
		promoteInterval:  promoteInterval,
		completeInterval: completeInterval,
		completeAge:      completeAge,
		now:              time.Now,
	}
}

// RunPromote periodically flips REQUESTED rows to PENDING. Designed to run as
// an interruptable thread task.
func (s *Sweeper) RunPromote(ctx context.Context, interrupt <-chan interface{}) error {
	ticker := time.NewTicker(s.promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-interrupt:
			return nil

		case <-ticker.C:
			dbConn := s.masterDB.Copy()

			count, err := PromoteRequested(ctx, dbConn)
			if err != nil {
				logger.Error(ctx, "Promote sweep : %s", err)
			} else {
				logger.Info(ctx, "Promote sweep : %d requested -> pending", count)
			}

			dbConn.Close()
		}
	}
}

// RunComplete periodically flips PENDING rows old enough to COMPLETE.
func (s *Sweeper) RunComplete(ctx context.Context, interrupt <-chan interface{}) error {
	ticker := time.NewTicker(s.completeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-interrupt:
			return nil

		case <-ticker.C:
			dbConn := s.masterDB.Copy()

			cutoff := s.now().UTC().Add(-s.completeAge)
			count, err := CompleteAged(ctx, dbConn, cutoff)
			if err != nil {
				logger.Error(ctx, "Complete sweep : %s", err)
			} else {
				logger.Info(ctx, "Complete sweep : %d pending -> complete", count)
			}

			dbConn.Close()
		}
	}
}
