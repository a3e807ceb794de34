package connector

import (
	"sync"
	"testing"
	"time"

	"github.com/coreflow/coreflow/element"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	mu    sync.Mutex
	calls [][]SearchDocument
}

func (r *recordingIndexer) Bulk(docs []SearchDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]SearchDocument, len(docs))
	copy(cp, docs)
	r.calls = append(r.calls, cp)
	return nil
}

func (r *recordingIndexer) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += len(c)
	}
	return n
}

type identityConverter struct{}

func (identityConverter) Convert(r element.Record) SearchDocument {
	return SearchDocument{Index: "docs", Body: r.Payload}
}

func TestSearchSinkFlushesOnBatchSize(t *testing.T) {
	indexer := &recordingIndexer{}
	sink := NewSearchSink(indexer, identityConverter{}, 3, time.Hour)
	require.NoError(t, sink.Open(&Context{}))

	for i := 0; i < 7; i++ {
		require.NoError(t, sink.WriteRecord(element.Record{Payload: []byte{byte(i)}}))
	}
	require.NoError(t, sink.Close())

	require.Equal(t, 7, indexer.total())
}

func TestSearchSinkFlushesOnTimerWhenBelowBatchSize(t *testing.T) {
	indexer := &recordingIndexer{}
	sink := NewSearchSink(indexer, identityConverter{}, 100, 20*time.Millisecond)
	require.NoError(t, sink.Open(&Context{}))

	require.NoError(t, sink.WriteRecord(element.Record{Payload: []byte("one")}))
	require.Eventually(t, func() bool { return indexer.total() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, sink.Close())
}
