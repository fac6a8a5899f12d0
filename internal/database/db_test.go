package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lance13c/lpqa/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func report(id, url string, at time.Time, fcpStatus types.Status) *types.QAReport {
	r := &types.QAReport{
		RunID:           id,
		TargetURL:       url,
		Timestamp:       at,
		RegistryVersion: "2026.10.1",
		Results: []types.CheckResult{
			{CheckID: "DEV-016", Status: types.StatusPass, Message: "form #lp-pom-form-42 present"},
			{CheckID: "DEV-031", Status: fcpStatus, Message: "first contentful paint"},
			{CheckID: "DEV-006", Status: types.StatusSkip, SkipReason: types.SkipCaptureTimeout},
		},
	}
	for _, res := range r.Results {
		switch res.Status {
		case types.StatusPass:
			r.Summary.Pass++
		case types.StatusFail:
			r.Summary.Fail++
		case types.StatusSkip:
			r.Summary.Skip++
		}
	}
	r.Summary.Total = len(r.Results)
	r.Degraded = true
	return r
}

func TestSaveAndLoadReport(t *testing.T) {
	db := openTestDB(t)
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	if err := db.SaveReport(report("run-1", "https://go.acme.com/quote", at, types.StatusFail)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, err := db.GetReport("run-1")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.TargetURL != "https://go.acme.com/quote" || len(got.Results) != 3 || !got.Degraded {
		t.Errorf("GetReport() = %+v", got)
	}
	if res, _ := got.Result("DEV-006"); res.SkipReason != types.SkipCaptureTimeout {
		t.Errorf("skip reason lost: %+v", res)
	}

	if _, err := db.GetReport("missing"); err == nil {
		t.Error("GetReport() of an unknown run should fail")
	}
	if err := db.SaveReport(report("run-1", "https://go.acme.com/quote", at, types.StatusPass)); err == nil {
		t.Error("saving the same run id twice should fail")
	}
}

func TestRecentRunsAndHistory(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	runs := []*types.QAReport{
		report("a", "https://go.acme.com/quote", base, types.StatusFail),
		report("b", "https://go.acme.com/other", base.Add(time.Hour), types.StatusPass),
		report("c", "https://go.acme.com/quote", base.Add(2*time.Hour), types.StatusPass),
	}
	for _, r := range runs {
		if err := db.SaveReport(r); err != nil {
			t.Fatalf("SaveReport(%s) error = %v", r.RunID, err)
		}
	}

	all, err := db.RecentRuns("", 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(all) != 3 || all[0].RunID != "c" || all[2].RunID != "a" {
		t.Errorf("RecentRuns() order = %+v", all)
	}

	quote, err := db.RecentRuns("https://go.acme.com/quote", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(quote) != 1 || quote[0].RunID != "c" || quote[0].Pass != 2 || !quote[0].Degraded {
		t.Errorf("RecentRuns(quote, 1) = %+v", quote)
	}

	history, err := db.CheckHistory("https://go.acme.com/quote", "DEV-031", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0] != types.StatusPass || history[1] != types.StatusFail {
		t.Errorf("CheckHistory() = %v", history)
	}

	stats, err := db.GetStatistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRuns != 3 || stats.DistinctURLs != 2 || stats.FailedRuns != 1 || stats.LastRun == nil {
		t.Errorf("GetStatistics() = %+v", stats)
	}
}

func TestStatisticsOnEmptyDatabase(t *testing.T) {
	stats, err := openTestDB(t).GetStatistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRuns != 0 || stats.LastRun != nil {
		t.Errorf("GetStatistics() = %+v", stats)
	}
}
