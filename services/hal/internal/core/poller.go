package core

import (
	"container/heap"
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/util"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// PollReq asks the HAL to run Verb on a capability.
type PollReq struct {
	Addr  types.CapabilityAddress
	Verb  string
	Every time.Duration
}

type pollKey struct {
	addr types.CapabilityAddress
	verb string
}

type pollItem struct {
	key    pollKey
	due    time.Time
	every  time.Duration
	jitter time.Duration
	index  int
}

type pollHeap []*pollItem

func (h pollHeap) Len() int           { return len(h) }
func (h pollHeap) Less(i, j int) bool { return h[i].due.Before(h[j].due) }
func (h pollHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *pollHeap) Push(x any)        { it := x.(*pollItem); it.index = len(*h); *h = append(*h, it) }
func (h *pollHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	it.index = -1
	*h = old[:n-1]
	return it
}

// Poller fires PollReqs on jittered schedules. A request is dropped, not
// queued, when the consumer is still busy with the previous one.
type Poller struct {
	mu    sync.Mutex
	wake  chan struct{}
	items map[pollKey]*pollItem
	h     pollHeap
	rand  *rand.Rand
	out   chan<- PollReq
}

func NewPoller(out chan<- PollReq) *Poller {
	return &Poller{
		wake:  make(chan struct{}, 1),
		items: make(map[pollKey]*pollItem),
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		out:   out,
	}
}

// Upsert adds or updates a schedule. The first fire occurs after interval
// plus a random jitter in [0..jitter]; jitter is re-drawn on every re-arm.
func (p *Poller) Upsert(addr types.CapabilityAddress, verb string, interval, jitter time.Duration) error {
	if interval <= 0 || verb == "" {
		return halerr.ErrInvalidPeriod
	}
	if jitter < 0 {
		jitter = 0
	}
	key := pollKey{addr: addr, verb: verb}

	p.mu.Lock()
	due := time.Now().Add(p.jittered(interval, jitter))
	if it := p.items[key]; it == nil {
		it = &pollItem{key: key, due: due, every: interval, jitter: jitter, index: -1}
		p.items[key] = it
		heap.Push(&p.h, it)
	} else {
		it.every, it.jitter, it.due = interval, jitter, due
		heap.Fix(&p.h, it.index)
	}
	p.mu.Unlock()
	p.wakeup()
	return nil
}

func (p *Poller) Stop(addr types.CapabilityAddress, verb string) {
	key := pollKey{addr: addr, verb: verb}
	p.mu.Lock()
	if it := p.items[key]; it != nil {
		heap.Remove(&p.h, it.index)
		delete(p.items, key)
	}
	p.mu.Unlock()
	p.wakeup()
}

// BumpAfter re-arms a schedule one period after last, typically the time of
// an on-demand read that made the next poll redundant.
func (p *Poller) BumpAfter(addr types.CapabilityAddress, verb string, last time.Time) {
	key := pollKey{addr: addr, verb: verb}
	now := time.Now()
	p.mu.Lock()
	if it := p.items[key]; it != nil {
		due := last.Add(it.every)
		if due.Before(now) {
			due = now
		}
		it.due = due
		heap.Fix(&p.h, it.index)
	}
	p.mu.Unlock()
	p.wakeup()
}

// Len returns the number of active schedules.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait, ok := p.nextWait()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}
		if wait <= 0 {
			p.fire()
			continue
		}

		util.ResetTimer(timer, wait)
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-timer.C:
		}
	}
}

func (p *Poller) fire() {
	var req PollReq
	p.mu.Lock()
	top := p.top()
	if top == nil || top.due.After(time.Now()) {
		p.mu.Unlock()
		return
	}
	top.due = time.Now().Add(p.jittered(top.every, top.jitter))
	heap.Fix(&p.h, top.index)
	req = PollReq{Addr: top.key.addr, Verb: top.key.verb, Every: top.every}
	p.mu.Unlock()

	select {
	case p.out <- req:
	default:
	}
}

func (p *Poller) top() *pollItem {
	if len(p.h) == 0 {
		return nil
	}
	return p.h[0]
}

func (p *Poller) nextWait() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	top := p.top()
	if top == nil {
		return 0, false
	}
	return time.Until(top.due), true
}

func (p *Poller) wakeup() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Poller) jittered(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	return interval + time.Duration(p.rand.Int63n(int64(jitter)+1))
}
