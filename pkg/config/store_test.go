package config

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store, path
}

func TestEndpointsPersistAcrossReopen(t *testing.T) {
	store, path := openTestStore(t)

	if err := store.AddEndpoint("http://a:5001"); err != nil {
		t.Fatalf("AddEndpoint failed: %v", err)
	}
	if err := store.SetActiveEndpoint("http://b:5002"); err != nil {
		t.Fatalf("SetActiveEndpoint failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer store.Close()

	urls, err := store.Endpoints()
	if err != nil {
		t.Fatalf("Endpoints failed: %v", err)
	}
	if len(urls) != 2 || urls[0] != "http://a:5001" || urls[1] != "http://b:5002" {
		t.Errorf("unexpected endpoint list: %v", urls)
	}

	active, err := store.ActiveEndpoint()
	if err != nil {
		t.Fatalf("ActiveEndpoint failed: %v", err)
	}
	if active != "http://b:5002" {
		t.Errorf("expected active http://b:5002, got %q", active)
	}
}

func TestAddEndpointDeduplicates(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	for i := 0; i < 3; i++ {
		if err := store.AddEndpoint("http://a:5001"); err != nil {
			t.Fatalf("AddEndpoint failed: %v", err)
		}
	}
	urls, err := store.Endpoints()
	if err != nil {
		t.Fatalf("Endpoints failed: %v", err)
	}
	if len(urls) != 1 {
		t.Errorf("expected one entry, got %v", urls)
	}
}

func TestRemoveActiveEndpointClearsSelection(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	if err := store.SetActiveEndpoint("http://a:5001"); err != nil {
		t.Fatalf("SetActiveEndpoint failed: %v", err)
	}
	if err := store.RemoveEndpoint("http://a:5001"); err != nil {
		t.Fatalf("RemoveEndpoint failed: %v", err)
	}

	active, err := store.ActiveEndpoint()
	if err != nil {
		t.Fatalf("ActiveEndpoint failed: %v", err)
	}
	if active != "" {
		t.Errorf("expected no active endpoint, got %q", active)
	}
}

func TestZoomLevelDefaultAndRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	zoom, err := store.ZoomLevel()
	if err != nil {
		t.Fatalf("ZoomLevel failed: %v", err)
	}
	if zoom != DefaultZoomLevel {
		t.Errorf("expected default zoom %v, got %v", DefaultZoomLevel, zoom)
	}

	if err := store.SetZoomLevel(3.5); err != nil {
		t.Fatalf("SetZoomLevel failed: %v", err)
	}
	zoom, err = store.ZoomLevel()
	if err != nil {
		t.Fatalf("ZoomLevel failed: %v", err)
	}
	if zoom != 3.5 {
		t.Errorf("expected zoom 3.5, got %v", zoom)
	}
}

func TestSubscribersReceiveChanges(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	events := store.Subscribe()

	if err := store.SetActiveEndpoint("http://a:5001"); err != nil {
		t.Fatalf("SetActiveEndpoint failed: %v", err)
	}
	if err := store.SetZoomLevel(4.0); err != nil {
		t.Fatalf("SetZoomLevel failed: %v", err)
	}

	ev := receiveEvent(t, events)
	if ev.Kind != EndpointChanged || ev.Endpoint != "http://a:5001" {
		t.Errorf("unexpected first event: %+v", ev)
	}
	ev = receiveEvent(t, events)
	if ev.Kind != ZoomChanged || ev.Zoom != 4.0 {
		t.Errorf("unexpected second event: %+v", ev)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	events := store.Subscribe()
	store.Unsubscribe(events)

	if _, open := <-events; open {
		t.Error("expected channel closed after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	if err := store.SetZoomLevel(1.5); err != nil {
		t.Fatalf("SetZoomLevel failed: %v", err)
	}
}

func receiveEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
