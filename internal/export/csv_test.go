package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
)

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func shortSnapshot(shooter string, startedAt time.Time, total time.Duration) model.SessionSnapshot {
	cfg := drill.PresetShort()
	return model.SessionSnapshot{
		Shooter:    shooter,
		Config:     cfg,
		StartedAt:  startedAt,
		Total:      total,
		TimeToLine: durationPtr(4321 * time.Millisecond),
		Hits:       []model.ShotResult{model.ShotHit, model.ShotMiss, model.ShotPending},
		Seq:        cfg.Seq,
	}
}

func TestWriteSessionCSV(t *testing.T) {
	snap := shortSnapshot("Jane Doe", time.Unix(0, 0), 12340*time.Millisecond)
	var buf bytes.Buffer
	if err := WriteSessionCSV(&buf, snap); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := strings.Join([]string{
		"Shooter,Mode,Targets,TotalTime,TimeToLine,ReloadTime,HitCount",
		"Jane Doe,short,3,12.34,4.32,,1",
		"Shot,Distance,Type,Stance,Result",
		"1,25,chest,standing,HIT",
		"2,50,half-head,standing,MISS",
		"3,100,full-body,kneeling,",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteSessionCSVQuotesNames(t *testing.T) {
	snap := shortSnapshot(`Smith, "Ace"`, time.Unix(0, 0), time.Second)
	var buf bytes.Buffer
	if err := WriteSessionCSV(&buf, snap); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.Contains(buf.String(), `"Smith, ""Ace""",short`) {
		t.Fatalf("expected quoted shooter name, got:\n%s", buf.String())
	}
}

func TestWriteSummaryCSVKeepsLatestPerShooter(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	sessions := []model.SessionSnapshot{
		shortSnapshot("Ann", base, 10*time.Second),
		shortSnapshot("Bob", base.Add(time.Minute), 20*time.Second),
		shortSnapshot("Ann", base.Add(2*time.Minute), 9*time.Second),
		shortSnapshot("Cid", base.Add(3*time.Minute), 30*time.Second),
	}
	reload := 1500 * time.Millisecond
	sessions[2].Reload = &reload

	var buf bytes.Buffer
	n, err := WriteSummaryCSV(&buf, sessions, []string{"Ann", "Bob"})
	if err != nil {
		t.Fatalf("write summary: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Shooter name,Targets,Drill name,Total Time,Time to line,Reload time,Hit rate" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "Ann,3,Short Drill,9.00,4.32,1.50,1/3" {
		t.Fatalf("unexpected Ann row: %q", lines[1])
	}
	if lines[2] != "Bob,3,Short Drill,20.00,4.32,,1/3" {
		t.Fatalf("unexpected Bob row: %q", lines[2])
	}
}

func TestWriteSummaryCSVAllShooters(t *testing.T) {
	base := time.Unix(1000, 0)
	sessions := []model.SessionSnapshot{
		shortSnapshot("Ann", base, time.Second),
		shortSnapshot("Bob", base, time.Second),
	}
	var buf bytes.Buffer
	n, err := WriteSummaryCSV(&buf, sessions, nil)
	if err != nil {
		t.Fatalf("write summary: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}

func TestFileNames(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":     "result_Jane_Doe.csv",
		"  a \t b  c ": "result_a_b_c.csv",
		"":             "result_shooter.csv",
		"solo":         "result_solo.csv",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
	day := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	if got := SummaryFileName(day); got != "summary_results_2024-03-09.csv" {
		t.Fatalf("unexpected summary file name: %s", got)
	}
}

func TestWriteSessionFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	snap := shortSnapshot("Jane Doe", time.Unix(0, 0), 12340*time.Millisecond)
	path, err := WriteSessionFile(dir, snap)
	if err != nil {
		t.Fatalf("write session file: %v", err)
	}
	if filepath.Base(path) != "result_Jane_Doe.csv" {
		t.Fatalf("unexpected path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "Shooter,Mode,Targets") {
		t.Fatalf("unexpected file content:\n%s", data)
	}
}
