package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"choliday/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
base:
  workday: "1-5,7"
calendar:
  source:
    - https://example.com/holidays.ics
    - /etc/choliday/extra.ics
  expand_recurrence: true
predict:
  work: ["补班"]
  rest: ["休", "Holiday"]
  priority: rest_over_work
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Calendar.Source) != 2 || cfg.Calendar.Source[1] != "/etc/choliday/extra.ics" {
		t.Errorf("Calendar.Source = %v", cfg.Calendar.Source)
	}
	if !cfg.Calendar.ExpandRecurrence {
		t.Errorf("Calendar.ExpandRecurrence = false, want true")
	}
	if cfg.Predict.Priority != model.RestOverWork {
		t.Errorf("Predict.Priority = %v, want %v", cfg.Predict.Priority, model.RestOverWork)
	}
	if len(cfg.Predict.Rest) != 2 {
		t.Errorf("Predict.Rest = %v, want 2 patterns", cfg.Predict.Rest)
	}
	// Normalized defaults.
	if cfg.Log.Level != "info" || cfg.Serve.Listen == "" || cfg.Serve.Refresh == "" {
		t.Errorf("defaults not applied: log=%+v serve=%+v", cfg.Log, cfg.Serve)
	}

	days := cfg.Workdays()
	for _, wd := range []time.Weekday{time.Monday, time.Friday, time.Sunday} {
		if !days[wd] {
			t.Errorf("Workdays()[%v] = false, want true", wd)
		}
	}
	if days[time.Saturday] {
		t.Errorf("Workdays()[Saturday] = true, want false")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{
			name:    "unknown priority",
			body:    "predict:\n  priority: Whatever\n",
			wantSub: "unknown priority",
		},
		{
			name:    "bad workday",
			body:    "base:\n  workday: \"0-5\"\npredict:\n  priority: KeepCurrent\n",
			wantSub: "base.workday",
		},
		{
			name:    "bad refresh",
			body:    "predict:\n  priority: UseLatest\nserve:\n  refresh: \"every now and then\"\n",
			wantSub: "serve.refresh",
		},
		{
			name:    "empty source",
			body:    "calendar:\n  source: [\"\"]\n",
			wantSub: "calendar.source[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\") error = nil, want error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Predict.Priority = model.UseLatest
	cfg.Base = &BaseConfig{Workday: "1,3-5"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Predict.Priority != model.UseLatest {
		t.Errorf("Priority = %v, want %v", got.Predict.Priority, model.UseLatest)
	}
	if got.Base == nil || got.Base.Workday != "1,3-5" {
		t.Errorf("Base = %+v, want workday 1,3-5", got.Base)
	}
}

func TestParseWorkdays(t *testing.T) {
	tests := []struct {
		in      string
		want    []time.Weekday
		wantErr bool
	}{
		{in: "1-5", want: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{in: "1,3,5", want: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{in: "1,3-5", want: []time.Weekday{time.Monday, time.Wednesday, time.Thursday, time.Friday}},
		{in: "7", want: []time.Weekday{time.Sunday}},
		{in: "6-5", want: []time.Weekday{time.Friday, time.Saturday}},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "8", wantErr: true},
		{in: "1-8", wantErr: true},
		{in: "1-3-5", wantErr: true},
		{in: "mon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWorkdays(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWorkdays(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Errorf("ParseWorkdays(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for _, wd := range tt.want {
				if !got[wd] {
					t.Errorf("ParseWorkdays(%q) missing %v", tt.in, wd)
				}
			}
		})
	}
}
