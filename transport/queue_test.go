package transport

import (
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueDequeueOrder(t *testing.T) {
	queuePath := path.Join(t.TempDir(), "xrdmon-queue")
	queue, err := NewConfirmationQueue(queuePath)
	require.NoError(t, err)
	defer queue.Close()

	queue.Enqueue([]byte("test1"))
	queue.Enqueue([]byte("test2"))

	msg, err := queue.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, []byte("test1"), msg)

	msg, err = queue.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, []byte("test2"), msg)
}

func TestQueueDequeueBlocksWhenEmpty(t *testing.T) {
	queuePath := path.Join(t.TempDir(), "xrdmon-queue")
	queue, err := NewConfirmationQueue(queuePath)
	require.NoError(t, err)
	defer queue.Close()

	queue.Enqueue([]byte("test1"))
	msg, err := queue.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, []byte("test1"), msg)

	done := make(chan struct{})
	go func() {
		_, _ = queue.Dequeue()
		close(done)
	}()
	select {
	case <-done:
		assert.Fail(t, "Dequeue returned before a message was enqueued")
	case <-time.After(100 * time.Millisecond):
	}

	queue.Enqueue([]byte("test2"))
	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "Dequeue did not unblock after Enqueue")
	}
}

func TestQueueSpillsToDiskBeyondInMemoryCap(t *testing.T) {
	queuePath := path.Join(t.TempDir(), "xrdmon-queue")
	queue, err := NewConfirmationQueue(queuePath)
	require.NoError(t, err)
	defer queue.Close()

	total := maxInMemory + 10
	for i := 0; i < total; i++ {
		queue.Enqueue([]byte{byte(i)})
	}
	assert.Equal(t, total, queue.Size())

	for i := 0; i < total; i++ {
		msg, err := queue.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, msg)
	}
}
