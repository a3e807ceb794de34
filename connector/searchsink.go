package connector

import (
	"sync"
	"time"

	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/handover"
	log "github.com/sirupsen/logrus"
)

// pollInterval is how often run polls the handover when it's empty but
// not yet closed; small enough not to add perceptible sink latency.
const pollInterval = 2 * time.Millisecond

// BulkIndexer abstracts the live search-index client (ported from
// rlink-rs's connector-elasticsearch, which wraps the official
// elasticsearch client behind a converter + bulk-write thread).
// coreflow's core never depends on a concrete search client (spec §1).
type BulkIndexer interface {
	Bulk(docs []SearchDocument) error
}

// SearchDocument is one converted record, ready for a bulk request.
type SearchDocument struct {
	Index string
	Body  []byte
}

// SearchConverter turns a Record into a SearchDocument, mirroring
// rlink-rs's ElasticsearchConverter trait.
type SearchConverter interface {
	Convert(r element.Record) SearchDocument
}

// SearchSink is a batched, asynchronous OutputFormat modeled on
// rlink-rs's ElasticsearchOutputFormat: WriteRecord hands records to a
// bounded handover queue, and a background goroutine drains it into
// fixed-size bulk requests, flushing early on a timer so low-traffic
// partitions don't stall behind a half-empty batch.
type SearchSink struct {
	NopCheckpoint

	Client     BulkIndexer
	Converter  SearchConverter
	BatchSize  int
	FlushEvery time.Duration

	handover *handover.Handover

	wg sync.WaitGroup
}

func NewSearchSink(client BulkIndexer, converter SearchConverter, batchSize int, flushEvery time.Duration) *SearchSink {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if flushEvery <= 0 {
		flushEvery = 3 * time.Second
	}
	return &SearchSink{Client: client, Converter: converter, BatchSize: batchSize, FlushEvery: flushEvery}
}

func (s *SearchSink) Open(ctx *Context) error {
	s.handover = handover.New(s.BatchSize * 2)
	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *SearchSink) WriteRecord(r element.Record) error {
	s.handover.Produce(r)
	return nil
}

func (s *SearchSink) Close() error {
	s.handover.Close()
	s.wg.Wait()
	return nil
}

func (s *SearchSink) Schema(in Schema) Schema { return nil }

// run drains the handover into bulk requests of at most BatchSize
// records, flushing whatever has accumulated every FlushEvery tick
// even if the batch hasn't filled (rlink-rs's write thread used a
// fixed batch_size with no timer; coreflow adds the timer so sparse
// streams still make progress).
func (s *SearchSink) run() {
	defer s.wg.Done()

	lastFlush := time.Now()
	batch := make([]element.Record, 0, s.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			lastFlush = time.Now()
			return
		}
		docs := make([]SearchDocument, len(batch))
		for i, r := range batch {
			docs[i] = s.Converter.Convert(r)
		}
		if err := s.Client.Bulk(docs); err != nil {
			log.WithError(err).WithField("batch_size", len(docs)).Error("searchsink: bulk write failed")
		}
		batch = batch[:0]
		lastFlush = time.Now()
	}

	for {
		r, err := s.handover.TryPollNext()
		if err != nil {
			if s.handover.Closed() {
				flush()
				return
			}
			if time.Since(lastFlush) >= s.FlushEvery {
				flush()
			}
			time.Sleep(pollInterval)
			continue
		}
		batch = append(batch, r)
		if len(batch) >= s.BatchSize {
			flush()
		}
	}
}
