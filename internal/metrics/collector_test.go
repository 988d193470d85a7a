package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpEmbedding, 100*time.Millisecond)
	c.RecordTiming(OpEmbedding, 300*time.Millisecond)

	snap := c.Snapshot()
	if snap.Embedding == nil {
		t.Fatal("expected embedding snapshot")
	}
	if snap.Embedding.Count != 2 {
		t.Errorf("count = %d, want 2", snap.Embedding.Count)
	}
	if snap.Embedding.MinTimeMs != 100 {
		t.Errorf("min = %dms, want 100", snap.Embedding.MinTimeMs)
	}
	if snap.Embedding.MaxTimeMs != 300 {
		t.Errorf("max = %dms, want 300", snap.Embedding.MaxTimeMs)
	}
	if snap.Embedding.AvgTimeMs != 200 {
		t.Errorf("avg = %.1fms, want 200", snap.Embedding.AvgTimeMs)
	}
	if snap.Embedding.TotalInputTokens != nil {
		t.Error("embedding snapshot must not carry token stats")
	}
}

func TestRecordCompletionTokens(t *testing.T) {
	c := NewCollector()
	c.RecordCompletion(50*time.Millisecond, 120, 40)
	c.RecordCompletion(70*time.Millisecond, 80, 60)

	snap := c.Snapshot()
	if snap.Completion == nil {
		t.Fatal("expected completion snapshot")
	}
	if got := *snap.Completion.TotalInputTokens; got != 200 {
		t.Errorf("input tokens = %d, want 200", got)
	}
	if got := *snap.Completion.TotalOutputTokens; got != 100 {
		t.Errorf("output tokens = %d, want 100", got)
	}
}

func TestEmptySnapshot(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	if snap.Embedding != nil || snap.VectorSearch != nil || snap.Completion != nil {
		t.Error("operations with no data should snapshot to nil")
	}
	if len(snap.Counters) != 0 {
		t.Error("expected no counters")
	}
}

func TestCounters(t *testing.T) {
	c := NewCollector()
	c.Add(CounterTweetsInserted, 5)
	c.Add(CounterTweetsInserted, 3)
	c.Add(CounterDuplicatesSkipped, 1)

	snap := c.Snapshot()
	if snap.Counters[CounterTweetsInserted] != 8 {
		t.Errorf("inserted = %d, want 8", snap.Counters[CounterTweetsInserted])
	}
	if snap.Counters[CounterDuplicatesSkipped] != 1 {
		t.Errorf("duplicates = %d, want 1", snap.Counters[CounterDuplicatesSkipped])
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpVectorSearch, time.Millisecond)
			c.Add(CounterTweetsInserted, 1)
			_ = c.Snapshot()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.VectorSearch.Count != 20 {
		t.Errorf("count = %d, want 20", snap.VectorSearch.Count)
	}
	if snap.Counters[CounterTweetsInserted] != 20 {
		t.Errorf("counter = %d, want 20", snap.Counters[CounterTweetsInserted])
	}
}
