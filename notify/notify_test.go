package notify

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/amiratheer/aklyplus/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	bodies []string
	sounds int
}

func (n *recordingNotifier) RequestPermission() bool { return true }

func (n *recordingNotifier) Notify(_, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies = append(n.bodies, body)
}

func (n *recordingNotifier) PlaySound() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sounds++
}

func TestWatcherPrimesSilently(t *testing.T) {
	rec := &recordingNotifier{}
	w := NewWatcher(rec, zerolog.Nop())

	// Pre-existing orders on the first delivery never notify
	w.OnOrders([]models.Order{{ID: "o1"}, {ID: "o2"}})
	assert.Empty(t, rec.bodies)

	w.OnOrders([]models.Order{{ID: "o1"}, {ID: "o2"}, {ID: "o3", CustomerName: "Amira"}})
	assert.Len(t, rec.bodies, 1)
	assert.Contains(t, rec.bodies[0], "Amira")
	assert.Equal(t, 1, rec.sounds)
}

func TestWatcherNotifiesOncePerOrder(t *testing.T) {
	rec := &recordingNotifier{}
	w := NewWatcher(rec, zerolog.Nop())

	w.OnOrders(nil)
	w.OnOrders([]models.Order{{ID: "o1"}})
	w.OnOrders([]models.Order{{ID: "o1"}})
	w.OnOrders([]models.Order{{ID: "o1"}, {ID: "o2"}})

	assert.Len(t, rec.bodies, 2)
}

func TestWatcherEmptyFirstDelivery(t *testing.T) {
	rec := &recordingNotifier{}
	w := NewWatcher(rec, zerolog.Nop())

	w.OnOrders(nil)
	w.OnOrders([]models.Order{{ID: "o1"}})

	assert.Len(t, rec.bodies, 1, "everything after the prime is new")
}
