package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
)

// fixtureStatus describes a small system:
//
//	htop (manual) -> libc6, libncursesw6
//	myapp (manual) -> libfoo2
//	mutt (manual) -> mail-transport-agent (provided by postfix)
//	libfoo1 (auto, unreachable), oldlib (auto, unreachable, held)
const fixtureStatus = `Package: htop
Status: install ok installed
Priority: optional
Section: utils
Installed-Size: 380
Architecture: amd64
Version: 3.2.2-2
Depends: libc6 (>= 2.34), libncursesw6 (>= 6)
Suggests: lsof
Description: interactive processes viewer
 Htop is an ncursed-based process viewer.

Package: libc6
Status: install ok installed
Section: libs
Architecture: amd64
Version: 2.36-9

Package: libncursesw6
Status: install ok installed
Section: libs
Architecture: amd64
Version: 6.4-4

Package: myapp
Status: install ok installed
Section: contrib/devel
Architecture: amd64
Version: 1.0
Depends: libfoo2

Package: libfoo1
Status: install ok installed
Section: libs
Architecture: amd64
Version: 1.9-1

Package: libfoo2
Status: install ok installed
Section: libs
Architecture: amd64
Version: 2.1-1

Package: oldlib
Status: hold ok installed
Section: libs
Architecture: amd64
Version: 0.1

Package: mutt
Status: install ok installed
Section: mail
Architecture: amd64
Version: 2.2.9-1
Recommends: mail-transport-agent

Package: postfix
Status: install ok installed
Section: mail
Architecture: amd64
Version: 3.7.6-0
Provides: mail-transport-agent
`

const fixtureExtendedStates = `Package: libc6
Architecture: amd64
Auto-Installed: 1

Package: libncursesw6
Architecture: amd64
Auto-Installed: 1

Package: libfoo1
Architecture: amd64
Auto-Installed: 1

Package: libfoo2
Architecture: amd64
Auto-Installed: 1

Package: oldlib
Architecture: amd64
Auto-Installed: 1

Package: postfix
Architecture: amd64
Auto-Installed: 1
`

// fixtureAvailable is apt-cache dumpavail output.
const fixtureAvailable = `Package: cowsay
Section: games
Architecture: all
Version: 3.03+dfsg2-8
Description: configurable talking cow

Package: htop
Section: utils
Architecture: amd64
Version: 3.3.0-1
`

const fixtureHistory = `
Start-Date: 2024-03-02  09:00:00
Commandline: apt install htop
Install: htop:amd64 (3.2.2-2), libncursesw6:amd64 (6.4-4, automatic)
End-Date: 2024-03-02  09:00:05

Start-Date: 2024-03-05  18:30:00
Commandline: apt install mutt
Install: mutt:amd64 (2.2.9-1), postfix:amd64 (3.7.6-0, automatic)
End-Date: 2024-03-05  18:31:00
`

// testEnv is a fake system rooted in a temp directory.
type testEnv struct {
	dir    string
	config string
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	env := &testEnv{dir: dir, config: filepath.Join(dir, "config.toml")}
	env.cfg = &config.Config{
		StatusFile:     filepath.Join(dir, "status"),
		ExtendedStates: filepath.Join(dir, "extended_states"),
		InfoDir:        filepath.Join(dir, "info"),
		HistoryDir:     filepath.Join(dir, "log"),
		DB:             filepath.Join(dir, "index", "index.db"),
	}

	env.write(t, "status", fixtureStatus)
	env.write(t, "extended_states", fixtureExtendedStates)
	env.write(t, "info/htop.list", "/.\n/usr/bin/htop\n/usr/share/man/man1/htop.1.gz\n")
	env.write(t, "log/history.log", fixtureHistory)
	env.write(t, "config.toml", `status_file = "`+env.cfg.StatusFile+`"
extended_states = "`+env.cfg.ExtendedStates+`"
info_dir = "`+env.cfg.InfoDir+`"
history_dir = "`+env.cfg.HistoryDir+`"
db = "`+env.cfg.DB+`"
`)
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// run executes aptscope with the env's config file and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, context.Background(), append([]string{"--config", e.config}, args...)...)
}

// index builds the env's index including the stubbed apt cache.
func (e *testEnv) index(t *testing.T) {
	t.Helper()
	if _, err := e.run(t, "index", "--available", "--quiet"); err != nil {
		t.Fatalf("index failed: %v", err)
	}
}

func runCLI(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetCommands(RootCmd)

	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.ExecuteContext(ctx)
	return out.String(), err
}

// resetCommands restores every flag to its default and drops contexts left
// over from earlier executions.
func resetCommands(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(nil)

	for _, sub := range cmd.Commands() {
		resetCommands(sub)
	}
}

// stubTools replaces external tool calls for the duration of the test.
// Only the tools named in installed are reported as present.
func stubTools(t *testing.T, installed ...string) {
	t.Helper()

	origHasTool := hasTool
	origDeborphan := deborphan
	origAutoremove := autoremoveCandidates
	origAptFile := aptFileList
	origAvailable := listAvailable
	origRemote := fetchRemoteFiles
	t.Cleanup(func() {
		hasTool = origHasTool
		deborphan = origDeborphan
		autoremoveCandidates = origAutoremove
		aptFileList = origAptFile
		listAvailable = origAvailable
		fetchRemoteFiles = origRemote
	})

	tools := make(map[string]bool)
	for _, name := range installed {
		tools[name] = true
	}

	hasTool = func(name string) bool { return tools[name] }
	deborphan = func(ctx context.Context) ([]string, error) {
		return []string{"libfoo1", "oldlib"}, nil
	}
	autoremoveCandidates = func(ctx context.Context) ([]dpkg.AutoremoveCandidate, error) {
		return []dpkg.AutoremoveCandidate{{Name: "libfoo1", Version: "1.9-1"}}, nil
	}
	aptFileList = func(ctx context.Context, name string) ([]string, error) {
		if name == "cowsay" {
			return []string{"/usr/games/cowsay"}, nil
		}
		return nil, nil
	}
	listAvailable = func(ctx context.Context) ([]*dpkg.Package, error) {
		return dpkg.ParseStatus(strings.NewReader(fixtureAvailable))
	}
	fetchRemoteFiles = func(ctx context.Context, cfg *config.Config, name string) ([]string, error) {
		return nil, errors.New("503 Service Unavailable")
	}
}
