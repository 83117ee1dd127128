package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"lightwatch/models"

	"gorm.io/gorm"
)

// In-memory fakes mirroring the repository contracts, including the
// uniqueness and monotonicity guards the SQL implementations enforce.

type fakeChannelRepo struct {
	mu    sync.Mutex
	byID  map[int64]*models.Channel
	byKey map[string]int64

	failUpdate error
	failList   error

	// onGetByAPIKey runs after a key lookup resolves, before the result is
	// returned. Lets tests interleave a mutation between the lookup and
	// the caller's critical section.
	onGetByAPIKey func()
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{
		byID:  make(map[int64]*models.Channel),
		byKey: make(map[string]int64),
	}
}

func (r *fakeChannelRepo) Get(channelID int64) (*models.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.byID[channelID]
	if !ok {
		return nil, models.ErrChannelNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r *fakeChannelRepo) GetByAPIKey(apiKey string) (*models.Channel, error) {
	r.mu.Lock()
	id, ok := r.byKey[apiKey]
	var cp models.Channel
	if ok {
		cp = *r.byID[id]
	}
	hook := r.onGetByAPIKey
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, models.ErrUnknownKey
	}
	return &cp, nil
}

func (r *fakeChannelRepo) Create(channel *models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[channel.ChannelID]; ok {
		return models.ErrChannelExists
	}
	if _, ok := r.byKey[channel.APIKey]; ok {
		return models.ErrDuplicateKey
	}
	cp := *channel
	r.byID[channel.ChannelID] = &cp
	r.byKey[channel.APIKey] = channel.ChannelID
	return nil
}

func (r *fakeChannelRepo) Update(tx *gorm.DB, channelID int64, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	ch, ok := r.byID[channelID]
	if !ok {
		return models.ErrChannelNotFound
	}
	for column, value := range fields {
		switch column {
		case "last_request_time":
			t := value.(time.Time)
			ch.LastRequestTime = &t
		case "last_status_change":
			t := value.(time.Time)
			ch.LastStatusChange = &t
		case "is_power_on":
			ch.IsPowerOn = value.(bool)
		case "paused":
			ch.Paused = value.(bool)
		case "api_key":
			key := value.(string)
			if owner, ok := r.byKey[key]; ok && owner != channelID {
				return models.ErrDuplicateKey
			}
			delete(r.byKey, ch.APIKey)
			ch.APIKey = key
			r.byKey[key] = channelID
		case "owner_id":
			ch.OwnerID = value.(int64)
		case "timezone":
			ch.Timezone = value.(string)
		case "channel_name":
			ch.ChannelName = value.(string)
		default:
			return fmt.Errorf("fakeChannelRepo: unhandled column %q", column)
		}
	}
	return nil
}

func (r *fakeChannelRepo) Delete(tx *gorm.DB, channelID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.byID[channelID]
	if !ok {
		return models.ErrChannelNotFound
	}
	delete(r.byKey, ch.APIKey)
	delete(r.byID, channelID)
	return nil
}

func (r *fakeChannelRepo) ListActive() ([]models.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	var out []models.Channel
	for _, ch := range r.byID {
		if ch.IsPowerOn && !ch.Paused {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *fakeChannelRepo) ListByOwner(ownerID int64) ([]models.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Channel
	for _, ch := range r.byID {
		if ch.OwnerID == ownerID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

func (r *fakeChannelRepo) ListAll() ([]models.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Channel
	for _, ch := range r.byID {
		out = append(out, *ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out, nil
}

type fakeHistoryRepo struct {
	mu     sync.Mutex
	events map[int64][]models.StatusEvent
	nextID uint

	failAppend error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{events: make(map[int64][]models.StatusEvent)}
}

func (r *fakeHistoryRepo) Append(tx *gorm.DB, event *models.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppend != nil {
		return r.failAppend
	}
	existing := r.events[event.ChannelID]
	if n := len(existing); n > 0 && !event.Timestamp.After(existing[n-1].Timestamp) {
		return models.ErrOutOfOrderEvent
	}
	r.nextID++
	event.ID = r.nextID
	r.events[event.ChannelID] = append(existing, *event)
	return nil
}

func (r *fakeHistoryRepo) Query(channelID int64, since, until time.Time) ([]models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StatusEvent
	for _, e := range r.events[channelID] {
		if !e.Timestamp.Before(since) && e.Timestamp.Before(until) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) Recent(channelID int64, limit int) ([]models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[channelID]
	var out []models.StatusEvent
	for i := len(events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, events[i])
	}
	return out, nil
}

func (r *fakeHistoryRepo) Last(channelID int64) (*models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[channelID]
	if len(events) == 0 {
		return nil, nil
	}
	cp := events[len(events)-1]
	return &cp, nil
}

func (r *fakeHistoryRepo) LastBefore(channelID int64, t time.Time) (*models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[channelID]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Timestamp.Before(t) {
			cp := events[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeHistoryRepo) DeleteForChannel(tx *gorm.DB, channelID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, channelID)
	return nil
}

// fakeUnitOfWork hands out nil transactions; the fakes apply writes
// immediately, which is fine because the engine orders the history append
// before the state update and the tests assert on that ordering's effects.
type fakeUnitOfWork struct {
	commitErr error
}

func (f *fakeUnitOfWork) Begin() *gorm.DB          { return nil }
func (f *fakeUnitOfWork) Commit(tx *gorm.DB) error { return f.commitErr }
func (f *fakeUnitOfWork) Rollback(tx *gorm.DB)     {}

// recordingSink captures every emitted transition.
type recordingSink struct {
	mu     sync.Mutex
	events []models.TransitionEvent
}

func (s *recordingSink) EmitTransition(event *models.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *recordingSink) all() []models.TransitionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TransitionEvent, len(s.events))
	copy(out, s.events)
	return out
}
