package ingest

import (
	"github.com/google/uuid"

	"github.com/obinstory-alt/kkh/internal/domain"
)

// Resolver resolves channel and item references for a single ingestion
// batch. Import rows match by exact, case-sensitive name; form entries
// match by id. Build a fresh Resolver per batch so it reflects the current
// configuration.
type Resolver struct {
	channelsByName map[string]domain.Channel
	itemsByName    map[string]domain.Item
	channelsByID   map[uuid.UUID]domain.Channel
	itemsByID      map[uuid.UUID]domain.Item
}

// NewResolver builds lookup maps over the given configuration.
func NewResolver(channels []domain.Channel, items []domain.Item) *Resolver {
	r := &Resolver{
		channelsByName: make(map[string]domain.Channel, len(channels)),
		itemsByName:    make(map[string]domain.Item, len(items)),
		channelsByID:   make(map[uuid.UUID]domain.Channel, len(channels)),
		itemsByID:      make(map[uuid.UUID]domain.Item, len(items)),
	}
	for _, ch := range channels {
		r.channelsByName[ch.Name] = ch
		r.channelsByID[ch.ID] = ch
	}
	for _, it := range items {
		r.itemsByName[it.Name] = it
		r.itemsByID[it.ID] = it
	}
	return r
}

// ChannelByName resolves a channel by exact name.
func (r *Resolver) ChannelByName(name string) (domain.Channel, bool) {
	ch, ok := r.channelsByName[name]
	return ch, ok
}

// ItemByName resolves an item by exact name.
func (r *Resolver) ItemByName(name string) (domain.Item, bool) {
	it, ok := r.itemsByName[name]
	return it, ok
}

// ChannelByID resolves a channel by id.
func (r *Resolver) ChannelByID(id uuid.UUID) (domain.Channel, bool) {
	ch, ok := r.channelsByID[id]
	return ch, ok
}

// ItemByID resolves an item by id.
func (r *Resolver) ItemByID(id uuid.UUID) (domain.Item, bool) {
	it, ok := r.itemsByID[id]
	return it, ok
}
