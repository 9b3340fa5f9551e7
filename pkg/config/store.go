package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketName = "config"

	keyActiveEndpoint = "activeEndpoint"
	keyEndpoints      = "endpoints"
	keyZoomLevel      = "zoomLevel"
)

// DefaultZoomLevel is the display multiplier used until the user sets one.
const DefaultZoomLevel = 2.5

// Store persists the active endpoint, known endpoint list and zoom level in
// a bbolt database, and notifies subscribers when either the active endpoint
// or the zoom level changes.
type Store struct {
	db *bolt.DB

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// Open opens (or creates) the config database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open config db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create config bucket: %w", err)
	}
	return &Store{
		db:   db,
		subs: make(map[chan Event]struct{}),
	}, nil
}

// Close releases the database and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan Event]struct{})
	s.mu.Unlock()
	return s.db.Close()
}

// ActiveEndpoint returns the endpoint currently in effect, or "" when none
// has been configured yet.
func (s *Store) ActiveEndpoint() (string, error) {
	value, err := s.get(keyActiveEndpoint)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// SetActiveEndpoint persists the active endpoint and notifies subscribers.
// The endpoint is added to the known list if missing.
func (s *Store) SetActiveEndpoint(url string) error {
	if err := s.AddEndpoint(url); err != nil {
		return err
	}
	if err := s.put(keyActiveEndpoint, []byte(url)); err != nil {
		return err
	}
	s.publish(Event{Kind: EndpointChanged, Endpoint: url})
	return nil
}

// Endpoints returns the known endpoint list.
func (s *Store) Endpoints() ([]string, error) {
	value, err := s.get(keyEndpoints)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(value, &urls); err != nil {
		return nil, fmt.Errorf("failed to unmarshal endpoint list: %w", err)
	}
	return urls, nil
}

// AddEndpoint appends a URL to the known list if not already present.
func (s *Store) AddEndpoint(url string) error {
	urls, err := s.Endpoints()
	if err != nil {
		return err
	}
	for _, u := range urls {
		if u == url {
			return nil
		}
	}
	urls = append(urls, url)
	return s.putEndpoints(urls)
}

// RemoveEndpoint drops a URL from the known list. Removing the active
// endpoint clears the active selection.
func (s *Store) RemoveEndpoint(url string) error {
	urls, err := s.Endpoints()
	if err != nil {
		return err
	}
	kept := urls[:0]
	for _, u := range urls {
		if u != url {
			kept = append(kept, u)
		}
	}
	if err := s.putEndpoints(kept); err != nil {
		return err
	}
	active, err := s.ActiveEndpoint()
	if err != nil {
		return err
	}
	if active == url {
		return s.put(keyActiveEndpoint, nil)
	}
	return nil
}

// ZoomLevel returns the persisted display zoom, or DefaultZoomLevel when
// unset.
func (s *Store) ZoomLevel() (float64, error) {
	value, err := s.get(keyZoomLevel)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return DefaultZoomLevel, nil
	}
	zoom, err := strconv.ParseFloat(string(value), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse zoom level: %w", err)
	}
	return zoom, nil
}

// SetZoomLevel persists the display zoom and notifies subscribers.
func (s *Store) SetZoomLevel(zoom float64) error {
	if err := s.put(keyZoomLevel, []byte(strconv.FormatFloat(zoom, 'f', -1, 64))); err != nil {
		return err
	}
	s.publish(Event{Kind: ZoomChanged, Zoom: zoom})
	return nil
}

func (s *Store) putEndpoints(urls []string) error {
	value, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to marshal endpoint list: %w", err)
	}
	return s.put(keyEndpoints, value)
}

func (s *Store) get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	return value, err
}

func (s *Store) put(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), value)
	})
}
