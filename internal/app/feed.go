package app

import (
	"context"
	"log"
	"sync"

	"interview-portal-service/internal/domain"
)

// RankingFeed fans fresh rankings out to subscribers per position. The scorer
// notifies it after every completed real session.
type RankingFeed struct {
	agg *Aggregator

	mu   sync.Mutex
	subs map[int64]map[chan domain.Ranking]struct{}
}

func NewRankingFeed(agg *Aggregator) *RankingFeed {
	return &RankingFeed{
		agg:  agg,
		subs: make(map[int64]map[chan domain.Ranking]struct{}),
	}
}

// Subscribe returns a channel receiving ranking updates for a position,
// primed with the current ranking. The caller must invoke the returned cancel
// function to avoid leaks.
func (f *RankingFeed) Subscribe(ctx context.Context, positionID int64) (<-chan domain.Ranking, func(), error) {
	initial, err := f.agg.Rank(ctx, positionID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Ranking, 8)

	f.mu.Lock()
	if f.subs[positionID] == nil {
		f.subs[positionID] = make(map[chan domain.Ranking]struct{})
	}
	f.subs[positionID][ch] = struct{}{}
	// sent under the lock so no broadcast can slip in ahead of the snapshot
	ch <- initial
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[positionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, positionID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

// SessionCompleted recomputes the position's ranking and broadcasts it.
// Implements CompletionListener.
func (f *RankingFeed) SessionCompleted(ctx context.Context, positionID int64) {
	ranking, err := f.agg.Rank(ctx, positionID)
	if err != nil {
		log.Printf("ranking refresh failed for position %d: %v", positionID, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[positionID] {
		select {
		case ch <- ranking:
		default:
			// drop the stale update so slow readers never block the scorer
			select {
			case <-ch:
			default:
			}
			ch <- ranking
		}
	}
}
