package daemon

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/prodcalendar/internal/calendar"
	"go.uber.org/zap/zaptest"
)

type fakeRefresher struct {
	mu    sync.Mutex
	years []int
	fail  map[int]error
}

func (f *fakeRefresher) RefreshYear(year int) (*calendar.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.years = append(f.years, year)
	if err := f.fail[year]; err != nil {
		return nil, err
	}
	return &calendar.Document{Year: year}, nil
}

func (f *fakeRefresher) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.years...)
}

func newTestDaemon(t *testing.T, refresher Refresher, nextYear bool) *Daemon {
	t.Helper()
	d, err := NewDaemon(refresher, "0 4 * * *", nextYear, zaptest.NewLogger(t))
	require.NoError(t, err)
	d.now = func() time.Time {
		return time.Date(2025, time.November, 20, 4, 0, 0, 0, time.UTC)
	}
	return d
}

func TestNewDaemonInvalidSchedule(t *testing.T) {
	_, err := NewDaemon(&fakeRefresher{}, "at dawn", false, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRefreshNow(t *testing.T) {
	tests := []struct {
		name      string
		nextYear  bool
		fail      map[int]error
		wantYears []int
		wantErr   bool
	}{
		{"current year only", false, nil, []int{2025}, false},
		{"current and next year", true, nil, []int{2025, 2026}, false},
		{"next year not published", true, map[int]error{2026: calendar.ErrRemoteUnavailable}, []int{2025, 2026}, false},
		{"current year fails", true, map[int]error{2025: calendar.ErrRemoteUnavailable}, []int{2025}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{fail: tt.fail}
			d := newTestDaemon(t, refresher, tt.nextYear)

			err := d.RefreshNow()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, calendar.ErrRemoteUnavailable))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantYears, refresher.calls())
		})
	}
}

func TestGetStatus(t *testing.T) {
	refresher := &fakeRefresher{fail: map[int]error{2025: errors.New("boom")}}
	d := newTestDaemon(t, refresher, false)

	status := d.GetStatus()
	assert.Equal(t, "0 4 * * *", status["schedule"])
	assert.NotContains(t, status, "last_run")

	require.Error(t, d.RefreshNow())

	status = d.GetStatus()
	assert.Contains(t, status, "last_run")
	assert.Equal(t, "boom", status["last_error"])
}

func TestStartRefreshesImmediatelyAndStops(t *testing.T) {
	refresher := &fakeRefresher{}
	d := newTestDaemon(t, refresher, true)

	done := make(chan error, 1)
	go func() {
		done <- d.Start()
	}()

	require.Eventually(t, func() bool {
		return len(refresher.calls()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := d.GetStatus()["next_run"]
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	d.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}

	// The 04:00 schedule cannot fire during the test
	assert.Equal(t, []int{2025, 2026}, refresher.calls())
}
