package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedgerStore records writes into a shared event log
type memoryLedgerStore struct {
	value    string
	writeErr error
	events   *[]string
}

func (s *memoryLedgerStore) Read(ctx context.Context) (string, bool, error) {
	return s.value, s.value != "", nil
}

func (s *memoryLedgerStore) Write(ctx context.Context, assetID string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.value = assetID
	*s.events = append(*s.events, "write:"+assetID)
	return nil
}

type recordingDeleter struct {
	err    error
	events *[]string
}

func (d *recordingDeleter) DeleteAsset(ctx context.Context, assetID string) error {
	*d.events = append(*d.events, "delete:"+assetID)
	return d.err
}

func TestCommitWritesBeforeDeleting(t *testing.T) {
	for _, deleteErr := range []error{nil, errors.New("not supported")} {
		var events []string
		store := &memoryLedgerStore{value: "1", events: &events}
		ledger := NewRotationLedger(store, &recordingDeleter{err: deleteErr, events: &events})

		result, err := ledger.Commit(context.Background(), "1", "2")
		require.NoError(t, err)

		assert.Equal(t, []string{"write:2", "delete:1"}, events)
		assert.True(t, result.Attempted)
		assert.Equal(t, deleteErr == nil, result.Deleted)
		assert.Equal(t, deleteErr, result.Err)
		assert.Equal(t, "2", store.value)
	}
}

func TestCommitWriteFailureSkipsDeletion(t *testing.T) {
	var events []string
	store := &memoryLedgerStore{value: "1", writeErr: errors.New("disk full"), events: &events}
	ledger := NewRotationLedger(store, &recordingDeleter{events: &events})

	_, err := ledger.Commit(context.Background(), "1", "2")
	require.Error(t, err)
	assert.Empty(t, events)
}

func TestRotateSkipsWhenNothingToRetire(t *testing.T) {
	var events []string
	ledger := NewRotationLedger(&memoryLedgerStore{events: &events}, &recordingDeleter{events: &events})

	assert.False(t, ledger.Rotate(context.Background(), "", "2").Attempted)
	assert.False(t, ledger.Rotate(context.Background(), "2", "2").Attempted)
	assert.False(t, ledger.Rotate(context.Background(), "2", "").Attempted)
	assert.Empty(t, events)
}
