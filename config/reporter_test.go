package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport_Finalize(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(dir, "stored.txt")
	if err := os.WriteFile(stored, []byte("file content"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	sub := filepath.Join(dir, "bundle", "strings")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "default.yaml"), []byte("A: b\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	rpt.Store("stored.txt", stored)
	rpt.Store("bundle", filepath.Join(dir, "bundle"))
	rpt.Store("absent", filepath.Join(dir, "absent.txt"))
	rpt.StoreData("config/config.yaml", []byte("version: 1\n"))

	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(filepath.Join(dir, "report.zip"))
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	got := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		got[f.Name] = string(data)
	}

	if got["stored.txt"] != "file content" {
		t.Errorf("stored.txt = %q", got["stored.txt"])
	}
	if got["config/config.yaml"] != "version: 1\n" {
		t.Errorf("config/config.yaml = %q", got["config/config.yaml"])
	}
	if got["bundle/strings/default.yaml"] != "A: b\n" {
		t.Errorf("bundle/strings/default.yaml = %q", got["bundle/strings/default.yaml"])
	}
	if _, ok := got["absent"]; ok {
		t.Error("absent file should not be archived")
	}
	if !strings.Contains(got["MANIFEST"], "stored.txt") {
		t.Errorf("MANIFEST does not mention stored file:\n%s", got["MANIFEST"])
	}
}

func TestReport_StoreTwicePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("x", []byte("1"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate StoreData")
		}
	}()
	r.StoreData("x", []byte("2"))
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	r.Store("a", "b")
	r.StoreData("a", nil)
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q", r.Name())
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
