package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
)

const currentLog = `
Start-Date: 2024-03-02  09:00:00
Commandline: apt install htop
Requested-By: alice (1000)
Install: htop:amd64 (3.2.2-2), libnl-3-200:amd64 (3.7.0-0.2, automatic)
End-Date: 2024-03-02  09:00:05

Start-Date: 2024-03-05  18:30:00
Commandline: apt upgrade
Upgrade: vim:amd64 (2:9.0.1378-1, 2:9.0.1378-2)
End-Date: 2024-03-05  18:31:00

Start-Date: 2024-03-05  19:00:00
Commandline: apt purge cowsay
Purge: cowsay:all (3.03+dfsg2-8)
End-Date: 2024-03-05  19:00:01
`

const rotatedLog = `
Start-Date: 2024-02-10  12:00:00
Commandline: apt install cowsay
Install: cowsay:all (3.03+dfsg2-8)
End-Date: 2024-02-10  12:00:02
`

const compressedLog = `
Start-Date: 2024-01-01  08:00:00
Commandline: apt install vim
Install: vim:amd64 (2:9.0.1378-1), vim-runtime:all (2:9.0.1378-1, automatic)
End-Date: 2024-01-01  08:00:10
`

func writeLogs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "history.log"), []byte(currentLog), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "history.log.1"), []byte(rotatedLog), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(filepath.Join(dir, "history.log.2.gz"))
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(compressedLog)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// Not a history log
	if err := os.WriteFile(filepath.Join(dir, "term.log"), []byte("noise"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestParse(t *testing.T) {
	events, err := Parse(strings.NewReader(currentLog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}

	htop := events[0]
	if htop.Package != "htop" || htop.Arch != "amd64" || htop.Version != "3.2.2-2" || htop.Automatic {
		t.Errorf("unexpected htop event: %+v", htop)
	}
	if htop.Commandline != "apt install htop" || htop.RequestedBy != "alice (1000)" {
		t.Errorf("transaction fields not copied: %+v", htop)
	}
	want := time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local)
	if !htop.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", htop.Time, want)
	}

	if !events[1].Automatic || events[1].Version != "3.7.0-0.2" {
		t.Errorf("automatic marker not parsed: %+v", events[1])
	}

	vim := events[2]
	if vim.Action != ActionUpgrade || vim.OldVersion != "2:9.0.1378-1" || vim.Version != "2:9.0.1378-2" {
		t.Errorf("unexpected upgrade event: %+v", vim)
	}

	if events[3].Action != ActionPurge || events[3].Package != "cowsay" {
		t.Errorf("unexpected purge event: %+v", events[3])
	}
}

func TestParse_SkipsStanzasWithoutStartDate(t *testing.T) {
	events, err := Parse(strings.NewReader("Commandline: apt install x\nInstall: x:amd64 (1)\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
}

func TestLoad(t *testing.T) {
	events, err := Load(writeLogs(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var got []string
	for _, ev := range events {
		got = append(got, ev.Action+" "+ev.Package)
	}
	want := []string{
		"install vim",
		"install vim-runtime",
		"install cowsay",
		"install htop",
		"install libnl-3-200",
		"upgrade vim",
		"purge cowsay",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	events, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestLoad_CorruptGzip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "history.log.3.gz"), []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for corrupt gzip file")
	}
}

func TestLogFiles_Order(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"history.log", "history.log.1", "history.log.10.gz", "history.log.2.gz", "history.log.old"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := logFiles(dir)
	if err != nil {
		t.Fatalf("logFiles() error = %v", err)
	}

	var got []string
	for _, p := range paths {
		got = append(got, filepath.Base(p))
	}
	want := []string{"history.log.10.gz", "history.log.2.gz", "history.log.1", "history.log"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("logFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestLatest(t *testing.T) {
	events, err := Load(writeLogs(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		n      int
		filter Filter
		want   []string
	}{
		{"manual installs", 2, Filter{}, []string{"htop", "cowsay"}},
		{"with automatic", 2, Filter{Automatic: true}, []string{"libnl-3-200", "htop"}},
		{"more than available", 10, Filter{}, []string{"htop", "cowsay", "vim"}},
		{"upgrades", 5, Filter{Actions: []string{ActionUpgrade}}, []string{"vim"}},
		{"zero", 0, Filter{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, ev := range Latest(events, tt.n, tt.filter) {
				got = append(got, ev.Package)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Latest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOnDate(t *testing.T) {
	events, err := Load(writeLogs(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	day, err := ParseDay("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDay() error = %v", err)
	}

	got := OnDate(events, day, Filter{Actions: []string{ActionUpgrade, ActionPurge}})
	if len(got) != 2 || got[0].Package != "vim" || got[1].Package != "cowsay" {
		t.Errorf("unexpected events on 2024-03-05: %+v", got)
	}

	if got := OnDate(events, day, Filter{}); len(got) != 0 {
		t.Errorf("expected no installs on 2024-03-05, got %+v", got)
	}
}

func TestParseDay(t *testing.T) {
	if _, err := ParseDay("2024-01-15"); err != nil {
		t.Errorf("ParseDay() unexpected error = %v", err)
	}

	for _, bad := range []string{"15/01/2024", "2024-13-01", "", "yesterday"} {
		_, err := ParseDay(bad)
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDay(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}
