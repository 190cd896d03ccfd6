package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/models"
)

func TestListenerDrainsQueueAndDeletesJobs(t *testing.T) {
	ledger := &fakeLedger{
		documents: map[string]*models.Document{
			"d1": queuedDocument("d1"),
			"d2": queuedDocument("d2"),
		},
		template: jsonTemplate(),
		jobs: []*models.Job{
			{ID: 1, DocumentUUID: "d1", AppUUID: models.NullAppUUID, DocumentContext: map[string]interface{}{"n": 1}},
			{ID: 2, DocumentUUID: "d2", AppUUID: models.NullAppUUID, DocumentContext: map[string]interface{}{"n": 2}},
		},
	}
	storage := &fakeObjectStorage{}
	coordinator, _ := newTestCoordinator(t, ledger, storage)
	listener := NewListener(ledger, coordinator, time.Millisecond, common.GetLogger())

	require.NoError(t, listener.drain(context.Background()))

	assert.Equal(t, []int64{1, 2}, ledger.deletedJobs)
	assert.Len(t, ledger.finished, 2)
	// One commit per job plus one for the empty select
	assert.Equal(t, 3, ledger.commits)
	assert.Zero(t, ledger.rollbacks)
}

func TestListenerDeletesJobEvenWhenDocumentFails(t *testing.T) {
	document := queuedDocument("d1")
	document.TemplateID = "org:nope:1.0.0"
	ledger := &fakeLedger{
		documents: map[string]*models.Document{"d1": document},
		template:  jsonTemplate(),
		jobs:      []*models.Job{{ID: 9, DocumentUUID: "d1", AppUUID: models.NullAppUUID}},
	}
	coordinator, _ := newTestCoordinator(t, ledger, &fakeObjectStorage{})
	listener := NewListener(ledger, coordinator, time.Millisecond, common.GetLogger())

	require.NoError(t, listener.drain(context.Background()))

	assert.Equal(t, []int64{9}, ledger.deletedJobs, "failing documents never loop the queue row")
	require.Len(t, ledger.stateUpdates, 1)
	assert.Equal(t, models.DocumentStateFailed, ledger.stateUpdates[0].state)
}

func TestListenerStopsOnRequest(t *testing.T) {
	ledger := &fakeLedger{documents: map[string]*models.Document{}}
	coordinator, _ := newTestCoordinator(t, ledger, &fakeObjectStorage{})
	listener := NewListener(ledger, coordinator, time.Millisecond, common.GetLogger())

	done := make(chan error, 1)
	go func() {
		done <- listener.Run(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	listener.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after Stop()")
	}
}

func TestListenerResubscribesEveryIteration(t *testing.T) {
	ledger := &fakeLedger{documents: map[string]*models.Document{}}
	coordinator, _ := newTestCoordinator(t, ledger, &fakeObjectStorage{})
	listener := NewListener(ledger, coordinator, time.Millisecond, common.GetLogger())

	done := make(chan error, 1)
	go func() {
		done <- listener.Run(context.Background())
	}()

	// The queue connection can be silently replaced mid-job, so the loop
	// must give the ledger a chance to re-issue LISTEN on every pass
	assert.Eventually(t, func() bool {
		return ledger.listenCount() > 1
	}, 2*time.Second, time.Millisecond)

	listener.Stop()
	require.NoError(t, <-done)
}

func TestListenerStopIsIdempotent(t *testing.T) {
	ledger := &fakeLedger{documents: map[string]*models.Document{}}
	coordinator, _ := newTestCoordinator(t, ledger, &fakeObjectStorage{})
	listener := NewListener(ledger, coordinator, time.Millisecond, common.GetLogger())

	listener.Stop()
	listener.Stop()

	assert.NoError(t, listener.Run(context.Background()))
}
