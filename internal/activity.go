package internal

import (
	"errors"
	"sync"
	"time"

	"github.com/wgbh/bawstun/internal/event"
	"github.com/wgbh/bawstun/pkg/logger"
)

const (
	DEBOUNCE_DURATION  time.Duration = time.Second * 2
	MAX_TIMER_DURATION time.Duration = time.Second * 5
)

var objectEvents = []event.Event{event.OBJECT_INGESTED, event.OBJECT_CHARACTERIZED, event.OBJECT_UPDATED, event.OBJECT_DESTROYED}

type (
	// Activity is a single object event observed on the event bus.
	Activity struct {
		Event    event.Event
		ObjectID string
		At       time.Time
	}

	// activityService records object activity and periodically flushes the
	// metrics, debouncing bursts of events (such as a batch
	// characterization) in to a single flush.
	activityService struct {
		*sync.Mutex
		flush         func() error
		activity      []Activity
		debounceTimer *time.Timer
		maxTimer      *time.Timer
		debounce      time.Duration
		maxWait       time.Duration
	}
)

func newActivityService(bus event.EventHandler, flush func() error) *activityService {
	service := &activityService{
		Mutex:    &sync.Mutex{},
		flush:    flush,
		debounce: DEBOUNCE_DURATION,
		maxWait:  MAX_TIMER_DURATION,
	}

	for _, ev := range objectEvents {
		bus.RegisterHandlerFunction(ev, service.handleEvent)
	}

	return service
}

func (service *activityService) handleEvent(ev event.Event, payload event.Payload) {
	id, ok := payload.(string)
	if !ok {
		log.Emit(logger.ERROR, "Handling of event %v failed: %v\n", ev, errors.New("illegal payload (expected object identifier)"))
		return
	}

	service.Lock()
	defer service.Unlock()

	service.activity = append(service.activity, Activity{Event: ev, ObjectID: id, At: time.Now()})
	log.Emit(logger.VERBOSE, "Observed %s for %s\n", ev, id)
	if service.flush == nil {
		return
	}

	// Cancel and re-set the debounce timer
	if service.debounceTimer != nil {
		service.debounceTimer.Stop()
	}
	service.debounceTimer = time.AfterFunc(service.debounce, service.scheduledFlush)

	// Set a max timer if not already set
	if service.maxTimer == nil {
		service.maxTimer = time.AfterFunc(service.maxWait, service.scheduledFlush)
	}
}

func (service *activityService) scheduledFlush() {
	if err := service.Flush(); err != nil {
		log.Emit(logger.WARNING, "Scheduled metrics flush failed: %v\n", err)
	}
}

// Flush cancels any pending timers and flushes immediately.
func (service *activityService) Flush() error {
	service.Lock()
	defer service.Unlock()

	if service.debounceTimer != nil {
		service.debounceTimer.Stop()
		service.debounceTimer = nil
	}
	if service.maxTimer != nil {
		service.maxTimer.Stop()
		service.maxTimer = nil
	}

	if service.flush == nil {
		return nil
	}

	return service.flush()
}

// Activity returns the object events observed so far, oldest first.
func (service *activityService) Activity() []Activity {
	service.Lock()
	defer service.Unlock()

	out := make([]Activity, len(service.activity))
	copy(out, service.activity)
	return out
}
