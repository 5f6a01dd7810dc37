package app_test

import (
	"context"
	"testing"
	"time"

	"interview-portal-service/internal/app"
)

func TestFeedPrimesSubscribersWithCurrentRanking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	f.completeReal(t, "cand-1", 3)
	feed := app.NewRankingFeed(f.aggregator())

	ch, cancel, err := feed.Subscribe(ctx, f.pos.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	select {
	case initial := <-ch:
		if len(initial.Standings) != 1 {
			t.Fatalf("expected primed ranking with 1 standing, got %d", len(initial.Standings))
		}
	case <-time.After(time.Second):
		t.Fatalf("no primed ranking received")
	}
}

func TestFeedBroadcastsOnCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	feed := app.NewRankingFeed(f.aggregator())

	ch, cancel, err := feed.Subscribe(ctx, f.pos.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()
	<-ch // primed snapshot

	f.completeReal(t, "cand-2", 4)
	feed.SessionCompleted(ctx, f.pos.ID)

	select {
	case update := <-ch:
		if len(update.Standings) != 1 || update.Standings[0].CandidateID != "cand-2" {
			t.Fatalf("unexpected broadcast: %+v", update.Standings)
		}
	case <-time.After(time.Second):
		t.Fatalf("no broadcast received")
	}
}

func TestFeedSnapshotNeverTrailsBroadcast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	f.completeReal(t, "cand-1", 2)
	feed := app.NewRankingFeed(f.aggregator())

	// a second candidate finishes while new subscriptions come in
	pending := f.newSession(t, "cand-2", f.pos.Topics[0].ID, false)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := f.store.CompleteSession(ctx, pending.ID, testTime, 30); err != nil {
			t.Errorf("complete session: %v", err)
			return
		}
		for i := 0; i < 50; i++ {
			feed.SessionCompleted(ctx, f.pos.ID)
		}
	}()

	// on any one channel the standings count must never shrink: the primed
	// snapshot has to land before any broadcast reaches the subscriber
	for i := 0; i < 20; i++ {
		ch, cancel, err := feed.Subscribe(ctx, f.pos.ID)
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		seen := 0
		for drained := false; !drained; {
			select {
			case r := <-ch:
				if len(r.Standings) < seen {
					t.Fatalf("ranking shrank from %d to %d standings", seen, len(r.Standings))
				}
				seen = len(r.Standings)
			default:
				drained = true
			}
		}
		cancel()
	}
	<-done
}

func TestFeedCancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	feed := app.NewRankingFeed(f.aggregator())

	ch, cancel, err := feed.Subscribe(ctx, f.pos.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	<-ch
	cancel()

	if _, open := <-ch; open {
		t.Fatalf("expected channel closed after cancel")
	}
	// broadcasting after cancel must not panic
	feed.SessionCompleted(ctx, f.pos.ID)
}
