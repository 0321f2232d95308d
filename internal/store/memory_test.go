package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
)

func newStore() *MemoryStore {
	return NewMemoryStore(session.New(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), ""))
}

// TestUpdate 変更が反映される
func TestUpdate(t *testing.T) {
	s := newStore()

	next, err := s.Update(func(st session.State) (session.State, error) {
		return session.ShiftMonth(st, 1), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if next.Month != 6 {
		t.Errorf("returned Month = %d, want 6", next.Month)
	}
	if got := s.Snapshot().Month; got != 6 {
		t.Errorf("Snapshot().Month = %d, want 6", got)
	}
}

// TestUpdateErrorKeepsState エラー時は状態を変えない
func TestUpdateErrorKeepsState(t *testing.T) {
	s := newStore()
	boom := errors.New("boom")

	got, err := s.Update(func(st session.State) (session.State, error) {
		st = session.ShiftMonth(st, 3)
		return st, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	if got.Month != 5 || s.Snapshot().Month != 5 {
		t.Errorf("state changed on error: returned %d, stored %d", got.Month, s.Snapshot().Month)
	}
}

// TestConcurrentAccess 並行して更新しても失われない
func TestConcurrentAccess(t *testing.T) {
	s := newStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Apply(func(st session.State) session.State {
				return session.ShiftMonth(st, 1)
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	// 2024/05 + 50 か月 = 2028/07
	st := s.Snapshot()
	if st.Year != 2028 || st.Month != 7 {
		t.Errorf("after 50 shifts got %d-%d, want 2028-7", st.Year, st.Month)
	}
}
