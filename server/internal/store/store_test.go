package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/alertd/pkg/types"
)

const retention = 90 * 24 * time.Hour

func entry(ts time.Time, msg string) Entry {
	return Entry{Timestamp: ts, Kind: "sample", Message: msg}
}

func TestAppendAndList(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New(retention)
	st.Append(entry(base, "a"))
	st.Append(entry(base.Add(time.Minute), "b"))

	got := st.List()
	if len(got) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(got))
	}
	if got[0].Message != "a" || got[1].Message != "b" {
		t.Errorf("List order: got %q,%q want a,b", got[0].Message, got[1].Message)
	}
}

func TestAppend_ClampsOutOfOrderTimestamp(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New(retention)
	st.Append(entry(base, "a"))
	st.Append(entry(base.Add(-time.Hour), "b"))

	got := st.List()
	if !got[1].Timestamp.Equal(base) {
		t.Errorf("clamped timestamp: got %v, want %v", got[1].Timestamp, base)
	}
}

func TestPrune_RetentionBoundary(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-retention)
	st := New(retention)

	st.Append(entry(cutoff.Add(-48*time.Hour), "old-1"))
	st.Append(entry(cutoff.Add(-time.Nanosecond), "old-2"))
	st.Append(entry(cutoff, "edge"))
	st.Append(entry(cutoff.Add(time.Hour), "new-1"))
	st.Append(entry(now, "new-2"))

	if n := st.Prune(now); n != 2 {
		t.Errorf("Prune: removed %d, want 2", n)
	}

	got := st.List()
	want := []string{"edge", "new-1", "new-2"}
	if len(got) != len(want) {
		t.Fatalf("List after prune: got %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Message != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, e.Message, want[i])
		}
		if e.Timestamp.Before(cutoff) {
			t.Errorf("entry %q survived with timestamp before cutoff", e.Message)
		}
	}
}

func TestPrune_Empty(t *testing.T) {
	st := New(retention)
	if n := st.Prune(time.Now()); n != 0 {
		t.Errorf("Prune on empty store: removed %d, want 0", n)
	}
}

func TestPrune_CompactsLargeDeadPrefix(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New(time.Hour)

	for i := 0; i < 3000; i++ {
		st.Append(entry(base.Add(time.Duration(i)*time.Second), fmt.Sprintf("e%d", i)))
	}
	// Keep the last 100 seconds only.
	now := base.Add(2999*time.Second + time.Hour - 99*time.Second)
	if n := st.Prune(now); n != 2900 {
		t.Fatalf("Prune: removed %d, want 2900", n)
	}
	if st.head != 0 {
		t.Errorf("head: got %d, want 0 after compaction", st.head)
	}
	if st.Len() != 100 {
		t.Errorf("Len: got %d, want 100", st.Len())
	}
	if got := st.List()[0].Message; got != "e2900" {
		t.Errorf("first survivor: got %q, want e2900", got)
	}

	// Appends after compaction keep working.
	st.Append(entry(now, "after"))
	if st.Len() != 101 {
		t.Errorf("Len after append: got %d, want 101", st.Len())
	}
}

func TestSince(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New(retention)
	for i := 0; i < 5; i++ {
		st.Append(entry(base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("e%d", i)))
	}

	got := st.Since(base.Add(3 * time.Minute))
	if len(got) != 2 || got[0].Message != "e3" {
		t.Errorf("Since: got %+v, want e3,e4", got)
	}
	if got := st.Since(base.Add(time.Hour)); len(got) != 0 {
		t.Errorf("Since future: got %d entries, want 0", len(got))
	}
}

func TestFlush_JSONLines(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New(retention)
	st.Append(Entry{Timestamp: base, Kind: "triggered", Severity: types.P0, Message: "P0 Alert Triggered!"})
	st.Append(entry(base.Add(time.Second), "tick"))

	var buf bytes.Buffer
	if err := st.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("Flush: got %d lines, want 2", len(lines))
	}
	if lines[0]["severity"] != "P0" || lines[0]["kind"] != "triggered" {
		t.Errorf("first line: got %v", lines[0])
	}
}

func TestConcurrentAppendAndPrune(t *testing.T) {
	st := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				st.Append(entry(time.Now(), "x"))
				st.Prune(time.Now())
				_ = st.List()
			}
		}()
	}
	wg.Wait()
	if st.Len() != 1000 {
		t.Errorf("Len: got %d, want 1000", st.Len())
	}
}
