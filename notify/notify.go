// Package notify plumbs new-order events to the notification collaborator.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/amiratheer/aklyplus/models"
)

// Notifier is the notification collaborator. Notify is a no-op when
// permission was not granted; PlaySound is best-effort and may silently
// fail.
type Notifier interface {
	RequestPermission() bool
	Notify(title, body string)
	PlaySound()
}

// LogNotifier emits notifications to the structured log. It stands in for
// environments without a real notification channel.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) RequestPermission() bool { return true }

func (n *LogNotifier) Notify(title, body string) {
	n.log.Info().Str("title", title).Str("body", body).Msg("notification")
}

func (n *LogNotifier) PlaySound() {
	n.log.Debug().Msg("notification sound")
}

// Watcher observes order snapshots and fires a notification whenever new
// orders appear at the head of the snapshot.
type Watcher struct {
	notifier Notifier
	log      zerolog.Logger

	mu     sync.Mutex
	primed bool
	known  map[string]bool
}

func NewWatcher(n Notifier, log zerolog.Logger) *Watcher {
	n.RequestPermission()
	return &Watcher{
		notifier: n,
		log:      log.With().Str("component", "order_watcher").Logger(),
		known:    make(map[string]bool),
	}
}

// OnOrders is the snapshot listener to register with the entity store. The
// first delivery primes the known set without notifying; later deliveries
// notify once per previously unseen order.
func (w *Watcher) OnOrders(orders []models.Order) {
	w.mu.Lock()
	primed := w.primed
	var fresh []models.Order
	for _, o := range orders {
		if !w.known[o.ID] {
			w.known[o.ID] = true
			fresh = append(fresh, o)
		}
	}
	w.primed = true
	w.mu.Unlock()

	if !primed {
		return
	}
	for _, o := range fresh {
		w.notifier.Notify("New order!", "New order from "+o.CustomerName+" for restaurant "+o.RestaurantID)
		w.notifier.PlaySound()
	}
}
