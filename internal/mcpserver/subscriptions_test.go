package mcpserver

import "testing"

func TestSubscriptionsTracksWatchCount(t *testing.T) {
	s := newSubscriptions()
	if s.isWatched(logURI) {
		t.Fatal("expected no watchers before subscribe")
	}

	s.subscribe(logURI)
	if !s.isWatched(logURI) {
		t.Fatal("expected a watcher after subscribe")
	}

	s.subscribe(logURI)
	s.unsubscribe(logURI)
	if !s.isWatched(logURI) {
		t.Fatal("expected second subscriber to keep the URI watched")
	}

	s.unsubscribe(logURI)
	if s.isWatched(logURI) {
		t.Fatal("expected no watchers after both unsubscribe")
	}
}

func TestUnsubscribeBelowZeroIsNoop(t *testing.T) {
	s := newSubscriptions()
	s.unsubscribe(logURI)
	if s.isWatched(logURI) {
		t.Fatal("unsubscribe without a prior subscribe must not go negative")
	}
}
