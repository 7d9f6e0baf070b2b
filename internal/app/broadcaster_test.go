package app

import (
	"testing"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"go.uber.org/goleak"
)

func TestBroadcasterDeliversAndCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewLeaderboardBroadcaster()
	updates, cancel := b.Subscribe()

	lb := domain.Leaderboard{Rows: []domain.LeaderboardRow{{UserID: "u1", TotalSolved: 1}}}
	b.Publish(lb)

	select {
	case got := <-updates:
		if len(got.Rows) != 1 || got.Rows[0].UserID != "u1" {
			t.Fatalf("unexpected payload: %+v", got.Rows)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an update")
	}

	cancel()
	if _, ok := <-updates; ok {
		t.Fatalf("expected channel closed after cancel")
	}

	// Publishing after cancel must not panic or block.
	b.Publish(lb)
	cancel() // second cancel is a no-op
}

func TestBroadcasterDropsStaleFramesForSlowSubscribers(t *testing.T) {
	b := NewLeaderboardBroadcaster()
	updates, cancel := b.Subscribe()
	defer cancel()

	// Overflow the buffer; Publish must never block.
	for i := 0; i < 50; i++ {
		b.Publish(domain.Leaderboard{Rows: []domain.LeaderboardRow{{UserID: "u1", TotalSolved: i}}})
	}

	var last domain.Leaderboard
	for {
		select {
		case lb := <-updates:
			last = lb
			continue
		default:
		}
		break
	}
	if len(last.Rows) != 1 || last.Rows[0].TotalSolved != 49 {
		t.Fatalf("expected the freshest frame to survive, got %+v", last.Rows)
	}
}
