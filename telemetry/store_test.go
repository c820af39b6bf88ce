package telemetry

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.StartRun(42, []byte("world: {}\n"))
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if id == "" || s.RunID() != id {
		t.Fatalf("run id = %q / %q", id, s.RunID())
	}

	for i := 0; i < 3; i++ {
		if err := s.SaveWindow(WindowStats{SimTimeSec: float64(i * 10), PreyCount: 20, Weather: "Clear"}); err != nil {
			t.Fatalf("SaveWindow: %v", err)
		}
	}
	if n, err := s.WindowCount(); err != nil || n != 3 {
		t.Errorf("WindowCount = %d, %v; want 3", n, err)
	}

	if err := s.EndRun(30, 12, 9, 4); err != nil {
		t.Fatalf("EndRun: %v", err)
	}
	r, err := s.Run(id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Seed != 42 || r.Births != 12 || r.Deaths != 9 || r.MaxGen != 4 {
		t.Errorf("run summary = %+v", r)
	}
}

func TestStoreDeathsOrderedByAge(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.StartRun(1, nil); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	err := s.SaveDeaths([]DeathRecord{
		{OrganismID: 1, Name: "Young", Role: "prey", Age: 5},
		{OrganismID: 2, Name: "Elder", Role: "prey", Age: 250, Chatter: true},
		{OrganismID: 3, Name: "Hunter", Role: "predator", Age: 80},
	})
	if err != nil {
		t.Fatalf("SaveDeaths: %v", err)
	}

	got, err := s.OldestDeaths(2)
	if err != nil {
		t.Fatalf("OldestDeaths: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Elder" || got[1].Name != "Hunter" {
		t.Fatalf("OldestDeaths = %+v", got)
	}
	if !got[0].Chatter || got[0].RunID != s.RunID() {
		t.Errorf("record fields lost: %+v", got[0])
	}
}
