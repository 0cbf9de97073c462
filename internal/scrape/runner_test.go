package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAdapter struct {
	site  string
	items []ListItem
	err   error
	calls int
}

func (a *stubAdapter) Site() string { return a.site }

func (a *stubAdapter) List(context.Context, Target) ([]ListItem, error) {
	a.calls++
	return a.items, a.err
}

func newTestRunner(reg Registry, cfg RunnerConfig) (*Runner, *int) {
	r := NewRunner(reg, SystemClock{}, cfg, zap.NewNop())
	sleeps := 0
	r.SetSleep(func(time.Duration) { sleeps++ })
	return r, &sleeps
}

func TestRunIsolatesAdapterFailure(t *testing.T) {
	good := &stubAdapter{site: "kgreens", items: []ListItem{
		{Party: "녹색당", Title: "첫 글", URL: "https://kgreens.org/1", Date: "2026-03-01"},
	}}
	bad := &stubAdapter{site: "samindang", err: errors.New("listing down")}
	tail := &stubAdapter{site: "justice21", items: []ListItem{
		{Party: "정의당", Title: "둘째 글", URL: "https://justice21.org/2", Date: "2026-03-02"},
	}}

	reg := Registry{}
	reg.Register(good)
	reg.Register(bad)
	reg.Register(tail)

	r, sleeps := newTestRunner(reg, RunnerConfig{})
	items := r.Run(context.Background(), NewRunContext("run-1", nil), []Target{
		{Site: "kgreens"}, {Site: "samindang"}, {Site: "justice21"},
	})

	// The failing source contributes nothing; order of the rest survives.
	require.Len(t, items, 2)
	assert.Equal(t, "첫 글", items[0].Title)
	assert.Equal(t, "둘째 글", items[1].Title)
	assert.Equal(t, 1, tail.calls)
	// Pacing applies after every source, success or failure.
	assert.Equal(t, 3, *sleeps)
}

func TestRunSkipsUnknownSite(t *testing.T) {
	known := &stubAdapter{site: "kgreens", items: []ListItem{
		{Title: "글", URL: "https://kgreens.org/1"},
	}}
	reg := Registry{}
	reg.Register(known)

	r, sleeps := newTestRunner(reg, RunnerConfig{})
	items := r.Run(context.Background(), NewRunContext("run-1", nil), []Target{
		{Site: "unknown-site"}, {Site: "kgreens"},
	})

	require.Len(t, items, 1)
	assert.Equal(t, 2, *sleeps)
}

func TestRunRecencyFilter(t *testing.T) {
	adapter := &stubAdapter{site: "kgreens", items: []ListItem{
		{Title: "오래된 글", URL: "https://kgreens.org/1", Date: "2026-02-01"},
		{Title: "최근 글", URL: "https://kgreens.org/2", Date: "2026-03-05"},
		{Title: "날짜 없는 글", URL: "https://kgreens.org/3"},
		{Title: "날짜 망가진 글", URL: "https://kgreens.org/4", Date: "03/05"},
	}}
	reg := Registry{}
	reg.Register(adapter)
	targets := []Target{{Site: "kgreens"}}

	t.Run("drop undated", func(t *testing.T) {
		r, _ := newTestRunner(reg, RunnerConfig{DateFrom: "2026-03-01"})
		items := r.Run(context.Background(), NewRunContext("run-1", nil), targets)

		require.Len(t, items, 1)
		assert.Equal(t, "최근 글", items[0].Title)
	})

	t.Run("keep undated", func(t *testing.T) {
		r, _ := newTestRunner(reg, RunnerConfig{DateFrom: "2026-03-01", KeepUndated: true})
		items := r.Run(context.Background(), NewRunContext("run-1", nil), targets)

		require.Len(t, items, 3)
		assert.Equal(t, "최근 글", items[0].Title)
		assert.Equal(t, "날짜 없는 글", items[1].Title)
		assert.Equal(t, "날짜 망가진 글", items[2].Title)
	})

	t.Run("no cutoff keeps everything", func(t *testing.T) {
		r, _ := newTestRunner(reg, RunnerConfig{})
		items := r.Run(context.Background(), NewRunContext("run-1", nil), targets)
		assert.Len(t, items, 4)
	})
}

func TestFilterTargets(t *testing.T) {
	targets := []Target{
		{ID: "kg-commentary", Site: "kgreens", Category: "논평"},
		{ID: "kg-press", Site: "kgreens", Category: "보도자료"},
		{ID: "j21-commentary", Site: "justice21", Category: "논평"},
	}

	tests := []struct {
		name         string
		onlySite     string
		excludeSites []string
		onlyCategory string
		onlyID       string
		wantIDs      []string
	}{
		{name: "no filters", wantIDs: []string{"kg-commentary", "kg-press", "j21-commentary"}},
		{name: "only site", onlySite: "kgreens", wantIDs: []string{"kg-commentary", "kg-press"}},
		{name: "exclude site", excludeSites: []string{"kgreens"}, wantIDs: []string{"j21-commentary"}},
		{name: "only category", onlyCategory: "논평", wantIDs: []string{"kg-commentary", "j21-commentary"}},
		{name: "only id", onlyID: "kg-press", wantIDs: []string{"kg-press"}},
		{name: "combined", onlySite: "kgreens", onlyCategory: "논평", wantIDs: []string{"kg-commentary"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterTargets(targets, tc.onlySite, tc.excludeSites, tc.onlyCategory, tc.onlyID)
			var ids []string
			for _, target := range got {
				ids = append(ids, target.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}
