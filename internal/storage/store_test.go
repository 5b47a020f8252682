package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/kinetic-lang/kinetic/internal/runtime"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openStore(t)

	detectors := []runtime.DetectorValue{
		{Name: "gap", Value: 3.25},
		{Name: "a_x", Value: -1.5},
	}
	id, err := s.SaveRun("orbit.kin", 0.01, 100, detectors,
		[]string{"step", "time", "gap"},
		[][]float64{{0, 0, 5}, {1, 0.01, 4.9}},
	)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := s.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.File != "orbit.kin" || meta.Dt != 0.01 || meta.Steps != 100 {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Detectors) != 2 || meta.Detectors[0].Name != "gap" || meta.Detectors[0].Value != 3.25 {
		t.Errorf("detectors = %+v", meta.Detectors)
	}

	data, err := os.ReadFile(s.TracePath(id))
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "step,time,gap" {
		t.Errorf("trace contents:\n%s", data)
	}
}

func TestLoadUnknownRun(t *testing.T) {
	s := openStore(t)
	if _, err := s.Load("missing"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)

	first, err := s.SaveRun("a.kin", 0.01, 10, nil, []string{"step"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.SaveRun("b.kin", 0.01, 10, nil, []string{"step"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("order = %s, %s; want newest first", runs[0].ID, runs[1].ID)
	}
}

func TestExportJSON(t *testing.T) {
	s := openStore(t)
	id, err := s.SaveRun("x.kin", 0.02, 50,
		[]runtime.DetectorValue{{Name: "d", Value: 1.5}},
		[]string{"step"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.ExportJSON(&buf, id); err != nil {
		t.Fatalf("export: %v", err)
	}
	var meta RunMeta
	if err := json.Unmarshal(buf.Bytes(), &meta); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if meta.ID != id || len(meta.Detectors) != 1 {
		t.Errorf("exported = %+v", meta)
	}
}

func TestExportCSV(t *testing.T) {
	s := openStore(t)
	id, err := s.SaveRun("x.kin", 0.01, 1, nil,
		[]string{"step", "time"}, [][]float64{{0, 0}})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.ExportCSV(&buf, id); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "step,time") {
		t.Errorf("csv = %q", buf.String())
	}
}
