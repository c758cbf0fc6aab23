package transport

import (
	"container/list"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/joncrlsn/dque"
)

// messageItem is the unit dque persists to disk; dque needs a concrete,
// gob-registerable type rather than a bare []byte.
type messageItem struct {
	Message []byte
}

func messageItemBuilder() interface{} {
	return &messageItem{}
}

// ErrQueueEmpty is returned by a non-blocking dequeue attempt.
var ErrQueueEmpty = errors.New("queue is empty")

// maxInMemory caps how many messages ConfirmationQueue holds in memory
// before spilling to the on-disk segment, so a slow or down broker can't
// grow the process's heap without bound.
const maxInMemory = 100

// ConfirmationQueue is a disk-backed FIFO sitting between the mapper's
// event stream and a Sink: Enqueue never waits for a consumer, and Dequeue
// blocks the consumer until a message is available. Messages beyond
// maxInMemory spill to disk via dque so a broker outage does not drop
// events or grow memory unbounded.
type ConfirmationQueue struct {
	msgQueue  *dque.DQue
	mutex     sync.Mutex
	emptyCond *sync.Cond
	inMemory  *list.List
	stop      chan struct{}
}

// NewConfirmationQueue opens (or creates) the on-disk queue segment under
// dir and starts its size-reporting goroutine.
func NewConfirmationQueue(dir string) (*ConfirmationQueue, error) {
	qName := path.Base(dir)
	qDir := path.Dir(dir)
	const segmentSize = 10000

	msgQueue, err := dque.NewOrOpen(qName, qDir, segmentSize, messageItemBuilder)
	if err != nil {
		return nil, err
	}
	if err := msgQueue.TurboOn(); err != nil {
		log.WithError(err).Warn("transport: failed to turn on dque turbo mode, queue will be durable but slower")
	}

	cq := &ConfirmationQueue{
		msgQueue: msgQueue,
		inMemory: list.New(),
		stop:     make(chan struct{}),
	}
	cq.emptyCond = sync.NewCond(&cq.mutex)
	go cq.reportSize()
	return cq, nil
}

// Size returns the combined in-memory and on-disk queue depth.
func (cq *ConfirmationQueue) Size() int {
	cq.mutex.Lock()
	defer cq.mutex.Unlock()
	return cq.inMemory.Len() + cq.msgQueue.SizeUnsafe()
}

func (cq *ConfirmationQueue) reportSize() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-cq.stop:
			return
		case <-ticker.C:
			queueDepth.Set(float64(cq.Size()))
		}
	}
}

// Enqueue adds msg to the queue. It never blocks on I/O for the caller:
// messages beyond maxInMemory are handed to dque, whose own writes are the
// only blocking work here.
func (cq *ConfirmationQueue) Enqueue(msg []byte) {
	cq.mutex.Lock()
	defer cq.mutex.Unlock()
	if cq.inMemory.Len() < maxInMemory {
		cq.inMemory.PushBack(msg)
	} else if err := cq.msgQueue.Enqueue(&messageItem{Message: msg}); err != nil {
		log.WithError(err).Error("transport: failed to enqueue message to disk")
	}
	cq.emptyCond.Broadcast()
}

func (cq *ConfirmationQueue) dequeueLocked() ([]byte, error) {
	if cq.inMemory.Len() == 0 {
		return nil, ErrQueueEmpty
	}
	msg := cq.inMemory.Remove(cq.inMemory.Front()).([]byte)

	for cq.inMemory.Len() < maxInMemory {
		item, err := cq.msgQueue.Dequeue()
		if err == dque.ErrEmpty {
			break
		}
		if err != nil {
			log.WithError(err).Error("transport: failed to dequeue from disk")
			break
		}
		cq.inMemory.PushBack(item.(*messageItem).Message)
	}
	return msg, nil
}

// Dequeue blocks until a message is available.
func (cq *ConfirmationQueue) Dequeue() ([]byte, error) {
	cq.mutex.Lock()
	defer cq.mutex.Unlock()
	for {
		msg, err := cq.dequeueLocked()
		if errors.Is(err, ErrQueueEmpty) {
			cq.emptyCond.Wait()
			continue
		} else if err != nil {
			return nil, err
		}
		return msg, nil
	}
}

// Close stops the size-reporting goroutine and closes the on-disk segment.
func (cq *ConfirmationQueue) Close() error {
	close(cq.stop)
	cq.mutex.Lock()
	defer cq.mutex.Unlock()
	return cq.msgQueue.Close()
}
