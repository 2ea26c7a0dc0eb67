package checkpoint

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoad(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "run.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := NewStore(db, "fit", time.Minute)
	pars := map[string]float64{"lambda": 0.42}
	if err := s.Save(pars, -12.5, 7, false); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Parameters["lambda"] != 0.42 || rec.LnL != -12.5 || rec.Iter != 7 || rec.Final {
		t.Errorf("unexpected record %+v", rec)
	}

	if err := s.Save(pars, -12.4, 8, true); err != nil {
		t.Fatal(err)
	}
	rec, err = s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Final || rec.Iter != 8 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestLoadMissing(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "run.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rec, err := NewStore(db, "nope", time.Minute).Load()
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Errorf("expected no record, got %+v", rec)
	}
}

func TestNilDB(t *testing.T) {
	s := NewStore(nil, "fit", time.Minute)
	if err := s.Save(map[string]float64{"x": 1}, 0, 0, true); err != nil {
		t.Fatal(err)
	}
	rec, err := s.Load()
	if err != nil || rec != nil {
		t.Errorf("expected nothing from a nil database, got %v, %v", rec, err)
	}
}

func TestStale(t *testing.T) {
	s := NewStore(nil, "fit", 10*time.Millisecond)
	s.Touch()
	if s.Stale() {
		t.Error("fresh store reported stale")
	}
	time.Sleep(20 * time.Millisecond)
	if !s.Stale() {
		t.Error("old store not reported stale")
	}
}
