package waitingroom

import (
	"sync"
	"time"

	"github.com/lunfardo314/unitrie/common"
	"go.uber.org/atomic"
)

// WaitingRoom calls functions after their deadlines. Deadlines are checked by a polling
// goroutine, so the resolution is the polling period
type WaitingRoom struct {
	mutex   sync.Mutex
	d       map[uint64]waiting
	nextID  uint64
	period  time.Duration
	stopped atomic.Bool
}

type waiting struct {
	deadline time.Time
	fun      func()
}

// Ticket identifies a waiting function
type Ticket uint64

var defaultPollingPeriod = 10 * time.Millisecond

func Create(pollEvery ...time.Duration) *WaitingRoom {
	ret := &WaitingRoom{
		d:      make(map[uint64]waiting),
		period: defaultPollingPeriod,
	}
	if len(pollEvery) > 0 {
		ret.period = pollEvery[0]
	}

	go ret.polling()
	return ret
}

func (d *WaitingRoom) polling() {
	for {
		time.Sleep(d.period)

		if d.stopped.Load() {
			return
		}
		for _, fun := range d.due(time.Now()) {
			fun()
		}
	}
}

func (d *WaitingRoom) due(nowis time.Time) []func() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	ret := make([]func(), 0)
	for id, w := range d.d {
		if w.deadline.After(nowis) {
			continue
		}
		ret = append(ret, w.fun)
		delete(d.d, id)
	}
	return ret
}

func (d *WaitingRoom) Stop() {
	d.stopped.Store(true)
}

func (d *WaitingRoom) WaitUntil(t time.Time, fun func()) Ticket {
	common.Assert(!d.stopped.Load(), "WaitingRoom already stopped")

	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.nextID++
	d.d[d.nextID] = waiting{deadline: t, fun: fun}
	return Ticket(d.nextID)
}

func (d *WaitingRoom) CallDelayed(t time.Duration, fun func()) Ticket {
	return d.WaitUntil(time.Now().Add(t), fun)
}

// Cancel removes the waiting function. Returns false if it was already called or cancelled
func (d *WaitingRoom) Cancel(t Ticket) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, ok := d.d[uint64(t)]; !ok {
		return false
	}
	delete(d.d, uint64(t))
	return true
}

// Len is the number of functions waiting
func (d *WaitingRoom) Len() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return len(d.d)
}
