package app

import (
	"sync"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
)

// LeaderboardBroadcaster fans leaderboard snapshots out to live subscribers
// (the websocket transport). Different (participant, problem) writes all feed
// the same single contest-wide board, so one broadcaster serves the process.
type LeaderboardBroadcaster struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardBroadcaster() *LeaderboardBroadcaster {
	return &LeaderboardBroadcaster{
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel receiving leaderboard updates. The caller must
// invoke the returned cancel function to avoid leaks.
func (b *LeaderboardBroadcaster) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber. Slow subscribers have
// their stale frame dropped rather than blocking the publisher.
func (b *LeaderboardBroadcaster) Publish(lb domain.Leaderboard) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
