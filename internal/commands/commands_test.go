package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"fstodo/internal/commands"
	"fstodo/internal/config"
	"fstodo/internal/exitcode"
	"fstodo/internal/logging"
	"fstodo/internal/repository"
	"fstodo/internal/service"
	"fstodo/internal/testutil"
)

const (
	testUser     = "u1"
	testInstance = "inst1"
)

func newConfig(t *testing.T, quiet bool) *config.Config {
	t.Helper()
	return &config.Config{
		Dir:      t.TempDir(),
		Quiet:    quiet,
		Settings: config.Settings{User: testUser, Instance: testInstance},
	}
}

// runCommand is a helper to run a command against a FakeStore.
func runCommand(t *testing.T, cmd commands.Command, store *testutil.FakeStore, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()
	return runWithConfig(t, cmd, store, args, newConfig(t, quiet))
}

func runWithConfig(t *testing.T, cmd commands.Command, store *testutil.FakeStore, args []string, cfg *config.Config) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	var s service.Store
	if store != nil {
		s = store
	}
	code = cmd.Run(context.Background(), cfg, s, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// parseFlags registers cmd's flags on a fresh set and parses args into it.
func parseFlags(t *testing.T, cmd commands.Command, args ...string) []string {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs.Args()
}

func task(id, name string, done bool) map[string]any {
	return map[string]any{"id": id, "name": name, "isDone": done}
}

func seedList(store *testutil.FakeStore, id, name string, tasks ...map[string]any) service.DocRef {
	ref := service.Ref(repository.CollectionLists, id)
	raw := make([]any, len(tasks))
	for i, tk := range tasks {
		raw[i] = tk
	}
	store.Seed(ref, service.Fields{"name": name, "instanceId": testInstance, "tasks": raw})
	return ref
}

// storedTasks returns the task maps of the stored list document.
func storedTasks(t *testing.T, store *testutil.FakeStore, ref service.DocRef) []map[string]any {
	t.Helper()
	doc, ok := store.Doc(ref)
	if !ok {
		t.Fatalf("document %s not found", ref)
	}
	raw, _ := doc.Fields["tasks"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]any))
	}
	return out
}

func groceries(store *testutil.FakeStore) service.DocRef {
	return seedList(store, "l1", "Groceries",
		task("a", "Milk", false), task("b", "Eggs", true), task("c", "Bread", false))
}

func expectSuccess(t *testing.T, stdout, stderr string, code int, want string) {
	t.Helper()
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func expectError(t *testing.T, stderr string, code, wantCode int, wantMsg string) {
	t.Helper()
	if code != wantCode {
		t.Errorf("expected exit code %d, got %d", wantCode, code)
	}
	if stderr != wantMsg {
		t.Errorf("expected %q, got %q", wantMsg, stderr)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)
	expectSuccess(t, stdout, stderr, code, "fstodo 0.1.0\n")
}

func TestHelpCommand_ListsEveryCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
	for _, cmd := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, "fstodo "+cmd.Name()) {
			t.Errorf("help output is missing %q", cmd.Name())
		}
	}
}

func TestListCommand_AllLists(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)
	seedList(store, "l2", "Work", task("w", "Report", false))

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, store, nil, false)
	testutil.GoldenString(t, "list_all", stdout)
	if code != exitcode.Success || stderr != "" {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestListCommand_OneList(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)
	seedList(store, "l2", "Work", task("w", "Report", false))

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, store, []string{"work"}, false)
	want := "------------\n[b] Work\n------------\n   b1  [ ] Report\n"
	expectSuccess(t, stdout, stderr, code, want)
}

func TestListCommand_Empty(t *testing.T) {
	store := testutil.NewFakeStore()

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, store, nil, false)
	expectSuccess(t, stdout, stderr, code, "no lists found\n")

	stdout, stderr, code = runCommand(t, &commands.ListCmd{}, store, nil, true)
	expectSuccess(t, stdout, stderr, code, "")
}

func TestListCommand_OtherInstanceHidden(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed(service.Ref(repository.CollectionLists, "x"),
		service.Fields{"name": "Elsewhere", "instanceId": "other", "tasks": []any{}})

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, store, nil, false)
	expectSuccess(t, stdout, stderr, code, "no lists found\n")
}

func TestListCommand_UnknownList(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)

	_, stderr, code := runCommand(t, &commands.ListCmd{}, store, []string{"Garden"}, false)
	expectError(t, stderr, code, exitcode.UserError, "error: list not found: Garden\n")
}

func TestListCommand_BackendError(t *testing.T) {
	store := testutil.NewFakeStore()
	store.SubscribeErr = errors.New("unavailable")

	_, stderr, code := runCommand(t, &commands.ListCmd{}, store, nil, false)
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error:") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListsCommand(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)
	seedList(store, "l2", "Work")

	stdout, stderr, code := runCommand(t, &commands.ListsCmd{}, store, nil, false)
	want := "a  Groceries (2 open, 1 done)\nb  Work (0 open, 0 done)\n"
	expectSuccess(t, stdout, stderr, code, want)
}

func seedManyLists(store *testutil.FakeStore, n int) {
	for i := 0; i < n; i++ {
		seedList(store, fmt.Sprintf("l%02d", i), fmt.Sprintf("list %d", i))
	}
}

// Lists past z have no letter but are still shown and reachable by name.
func TestListCommands_MoreListsThanLetters(t *testing.T) {
	store := testutil.NewFakeStore()
	seedManyLists(store, 26)
	seedList(store, "l26", "list 26", task("t1", "Paint", false))

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, store, nil, false)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("list: code=%d stderr=%q", code, stderr)
	}
	if !strings.Contains(stdout, "[z] list 25\n") {
		t.Errorf("expected list 25 under z, got %q", stdout)
	}
	if !strings.HasSuffix(stdout, "[-] list 26\n"+"------------\n"+"    1  [ ] Paint\n") {
		t.Errorf("expected trailing lettered-less list, got %q", stdout)
	}

	stdout, stderr, code = runCommand(t, &commands.ListsCmd{}, store, nil, false)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("lists: code=%d stderr=%q", code, stderr)
	}
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	if len(lines) != 27 || lines[26] != "-  list 26 (1 open, 0 done)" {
		t.Errorf("expected 27 lines ending with list 26, got %q", lines)
	}

	cmd := &commands.DoneCmd{}
	cmd.SetListName("list 26")
	stdout, stderr, code = runCommand(t, cmd, store, []string{"1"}, false)
	expectSuccess(t, stdout, stderr, code, "ok\n")
	if tasks := storedTasks(t, store, service.Ref(repository.CollectionLists, "l26")); tasks[0]["isDone"] != true {
		t.Errorf("expected task done, got %v", tasks[0])
	}
}

func TestWatchCommand_MoreListsThanLetters(t *testing.T) {
	store := testutil.NewFakeStore()
	seedManyLists(store, 27)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}
	done := make(chan int, 1)
	go func() {
		done <- (&commands.WatchCmd{}).Run(ctx, newConfig(t, false), store, nil, out, out)
	}()

	testutil.WaitFor(t, "first render", func() bool {
		return strings.Contains(out.String(), "[-] list 26")
	})
	cancel()
	select {
	case code := <-done:
		if code != exitcode.Success {
			t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	if strings.Contains(out.String(), "error") {
		t.Errorf("unexpected error output %q", out.String())
	}
}

func TestCreateListCommand(t *testing.T) {
	store := testutil.NewFakeStore()

	stdout, stderr, code := runCommand(t, &commands.CreateListCmd{}, store, []string{"Home", "Repairs"}, false)
	expectSuccess(t, stdout, stderr, code, "ok\n")

	writes := store.Writes()
	if len(writes) != 1 || writes[0].Op != "create" {
		t.Fatalf("expected one create, got %+v", writes)
	}
	f := writes[0].Fields
	if f["name"] != "Home Repairs" || f["instanceId"] != testInstance {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestCreateListCommand_NameRequired(t *testing.T) {
	store := testutil.NewFakeStore()
	_, stderr, code := runCommand(t, &commands.CreateListCmd{}, store, []string{"  "}, false)
	expectError(t, stderr, code, exitcode.UserError, "error: list name required\n")
	if n := len(store.Writes()); n != 0 {
		t.Errorf("expected no writes, got %d", n)
	}
}

func TestAddCommand_SingleList(t *testing.T) {
	store := testutil.NewFakeStore()
	ref := groceries(store)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, store, []string{"Oat", "milk"}, false)
	expectSuccess(t, stdout, stderr, code, "ok\n")

	tasks := storedTasks(t, store, ref)
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}
	if tasks[3]["name"] != "Oat milk" || tasks[3]["isDone"] != false || tasks[3]["id"] == "" {
		t.Errorf("unexpected new task %v", tasks[3])
	}
}

func TestAddCommand_ListFlag(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)
	work := seedList(store, "l2", "Work")

	cmd := &commands.AddCmd{}
	args := parseFlags(t, cmd, "-l", "b", "Report")
	stdout, stderr, code := runCommand(t, cmd, store, args, false)
	expectSuccess(t, stdout, stderr, code, "ok\n")

	if tasks := storedTasks(t, store, work); len(tasks) != 1 || tasks[0]["name"] != "Report" {
		t.Errorf("unexpected Work tasks %v", tasks)
	}
}

func TestAddCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		lists   int
		args    []string
		wantMsg string
	}{
		{"name required", 1, nil, "error: task name required\n"},
		{"no lists", 0, []string{"Milk"}, "error: no lists (run: fstodo createlist <name>)\n"},
		{"ambiguous target", 2, []string{"Milk"}, "error: --list required when there is more than one list\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			for i := 0; i < tt.lists; i++ {
				seedList(store, string(rune('p'+i)), "List")
			}
			_, stderr, code := runCommand(t, &commands.AddCmd{}, store, tt.args, false)
			expectError(t, stderr, code, exitcode.UserError, tt.wantMsg)
			if n := len(store.Writes()); n != 0 {
				t.Errorf("expected no writes, got %d", n)
			}
		})
	}
}

func TestDoneCommand_TogglesByDisplayNumber(t *testing.T) {
	store := testutil.NewFakeStore()
	ref := groceries(store)

	// a3 is Eggs: open tasks Milk, Bread come first
	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, store, []string{"a3"}, false)
	expectSuccess(t, stdout, stderr, code, "ok\n")

	tasks := storedTasks(t, store, ref)
	if tasks[1]["id"] != "b" || tasks[1]["isDone"] != false {
		t.Errorf("expected Eggs reopened, got %v", tasks[1])
	}
}

func TestDoneCommand_Errors(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, store, nil, false)
	expectError(t, stderr, code, exitcode.UserError, "error: task reference required\n")

	_, stderr, code = runCommand(t, &commands.DoneCmd{}, store, []string{"a9"}, false)
	expectError(t, stderr, code, exitcode.UserError, "error: task number out of range: 9\n")

	cmd := &commands.DoneCmd{}
	cmd.SetListName("Groceries")
	_, stderr, code = runCommand(t, cmd, store, []string{"a1"}, false)
	expectError(t, stderr, code, exitcode.UserError, "error: cannot use both --list and list letter\n")

	if n := len(store.Writes()); n != 0 {
		t.Errorf("expected no writes, got %d", n)
	}
}

func TestRenameCommand(t *testing.T) {
	store := testutil.NewFakeStore()
	ref := groceries(store)

	stdout, stderr, code := runCommand(t, &commands.RenameCmd{}, store, []string{"a", "1", "Milk", "2%"}, false)
	expectSuccess(t, stdout, stderr, code, "ok\n")

	if tasks := storedTasks(t, store, ref); tasks[0]["name"] != "Milk 2%" {
		t.Errorf("expected renamed task, got %v", tasks[0])
	}
}

func TestRenameCommand_NameRequired(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)

	_, stderr, code := runCommand(t, &commands.RenameCmd{}, store, []string{"a1", " "}, false)
	expectError(t, stderr, code, exitcode.UserError, "error: task name required\n")
}

func TestRmCommand_Confirmation(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		yes     bool
		stdout  string
		deleted bool
	}{
		{"answer yes", "y\n", false, "ok\n", true},
		{"answer no", "n\n", false, "cancelled\n", false},
		{"no answer", "", false, "cancelled\n", false},
		{"--yes flag", "", true, "ok\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			ref := groceries(store)

			cmd := &commands.RmCmd{}
			cmd.SetInput(strings.NewReader(tt.answer))
			cmd.SetYes(tt.yes)
			stdout, stderr, code := runCommand(t, cmd, store, []string{"a1"}, false)

			if code != exitcode.Success {
				t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
			}
			if stdout != tt.stdout {
				t.Errorf("expected %q, got %q", tt.stdout, stdout)
			}
			if !tt.yes && stderr != `delete "Milk"? [y/N] ` {
				t.Errorf("unexpected prompt %q", stderr)
			}

			tasks := storedTasks(t, store, ref)
			if tt.deleted {
				if len(tasks) != 2 || tasks[0]["id"] != "b" {
					t.Errorf("expected Milk removed, got %v", tasks)
				}
			} else if n := len(store.Writes()); n != 0 {
				t.Errorf("expected no writes, got %d", n)
			}
		})
	}
}

func TestInstancesCommand(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed(service.Ref(repository.MembershipCollection(testUser), "inst1"),
		service.Fields{"instanceId": "inst1", "instanceName": "Family"})
	store.Seed(service.Ref(repository.MembershipCollection(testUser), "inst2"),
		service.Fields{"instanceId": "inst2", "instanceName": "Work"})

	stdout, stderr, code := runCommand(t, &commands.InstancesCmd{}, store, nil, false)
	expectSuccess(t, stdout, stderr, code, "inst1  Family [active]\ninst2  Work\n")
}

func TestInstancesCommand_None(t *testing.T) {
	store := testutil.NewFakeStore()
	stdout, stderr, code := runCommand(t, &commands.InstancesCmd{}, store, nil, false)
	expectSuccess(t, stdout, stderr, code, "no instances (run: fstodo createinstance <name> or fstodo join <code>)\n")
}

func TestCreateInstanceCommand_Use(t *testing.T) {
	store := testutil.NewFakeStore()
	cfg := newConfig(t, false)

	cmd := &commands.CreateInstanceCmd{}
	args := parseFlags(t, cmd, "--use", "Family")
	stdout, stderr, code := runWithConfig(t, cmd, store, args, cfg)
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}

	writes := store.Writes()
	if len(writes) != 2 {
		t.Fatalf("expected instance and membership writes, got %+v", writes)
	}
	codeID := writes[0].Ref.ID
	if stdout != "created Family (code: "+codeID+")\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if cfg.Settings.Instance != codeID {
		t.Errorf("active instance = %q, want %q", cfg.Settings.Instance, codeID)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Dir, config.SettingsFile))
	if err != nil || !strings.Contains(string(data), codeID) {
		t.Errorf("config.yaml not saved: %q, %v", data, err)
	}
}

func TestJoinCommand(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed(service.Ref(repository.CollectionInstances, "code1"),
		service.Fields{"name": "Family", "userId": "someone"})

	stdout, stderr, code := runCommand(t, &commands.JoinCmd{}, store, []string{"code1"}, false)
	expectSuccess(t, stdout, stderr, code, "joined Family\n")

	writes := store.Writes()
	if len(writes) != 1 || writes[0].Ref.Path() != "users/u1/instances/code1" {
		t.Errorf("expected one membership write, got %+v", writes)
	}
}

func TestJoinCommand_UnknownCode(t *testing.T) {
	store := testutil.NewFakeStore()

	_, stderr, code := runCommand(t, &commands.JoinCmd{}, store, []string{"nope"}, false)
	expectError(t, stderr, code, exitcode.UserError, "error: instance does not exist: nope\n")
	if n := len(store.Writes()); n != 0 {
		t.Errorf("expected no writes, got %d", n)
	}
}

func TestUseCommand(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed(service.Ref(repository.MembershipCollection(testUser), "inst2"),
		service.Fields{"instanceId": "inst2", "instanceName": "Work"})
	cfg := newConfig(t, false)

	stdout, stderr, code := runWithConfig(t, &commands.UseCmd{}, store, []string{"inst2"}, cfg)
	expectSuccess(t, stdout, stderr, code, "using Work\n")
	if cfg.Settings.Instance != "inst2" {
		t.Errorf("active instance = %q", cfg.Settings.Instance)
	}

	_, stderr, code = runWithConfig(t, &commands.UseCmd{}, store, []string{"inst9"}, cfg)
	expectError(t, stderr, code, exitcode.UserError, "error: not a member of instance: inst9 (run: fstodo join inst9)\n")
}

func TestThemeCommand(t *testing.T) {
	cfg := newConfig(t, false)
	steps := []struct {
		args []string
		want string
	}{
		{nil, "light\n"},
		{[]string{"dark"}, "dark\n"},
		{nil, "dark\n"},
		{[]string{"toggle"}, "light\n"},
		{nil, "light\n"},
	}
	for _, s := range steps {
		stdout, stderr, code := runWithConfig(t, &commands.ThemeCmd{}, nil, s.args, cfg)
		expectSuccess(t, stdout, stderr, code, s.want)
	}

	_, stderr, code := runWithConfig(t, &commands.ThemeCmd{}, nil, []string{"blue"}, cfg)
	expectError(t, stderr, code, exitcode.UserError, "error: unknown theme: blue (must be 'light', 'dark' or 'toggle')\n")
}

// lockedBuffer is a bytes.Buffer safe to read while a command writes to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCommand_PrintsOnChange(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out, errOut lockedBuffer
	done := make(chan int, 1)
	go func() {
		done <- (&commands.WatchCmd{}).Run(ctx, newConfig(t, false), store, nil, &out, &errOut)
	}()

	testutil.WaitFor(t, "first print", func() bool { return strings.Contains(out.String(), "Groceries") })

	seedList(store, "l2", "Work")
	store.Release() // notifies subscribers of the seeded list
	testutil.WaitFor(t, "second print", func() bool { return strings.Contains(out.String(), "[b] Work") })

	cancel()
	select {
	case code := <-done:
		if code != exitcode.Success {
			t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errOut.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestTUICommand_QuitsOnQ(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := &commands.TUICmd{}
	cmd.SetInput(strings.NewReader("q"))
	var out, errOut bytes.Buffer
	code := cmd.Run(ctx, newConfig(t, false), store, nil, &out, &errOut)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errOut.String())
	}
	if !strings.Contains(out.String(), "Groceries") {
		t.Errorf("expected list in output, got %q", out.String())
	}
}

func TestTUICommand_LogsToFile(t *testing.T) {
	store := testutil.NewFakeStore()
	groceries(store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errOut bytes.Buffer
	opts := logging.DefaultOptions()
	opts.Level = log.DebugLevel
	cfg := newConfig(t, false)
	cfg.Logger = logging.New(&errOut, opts)

	cmd := &commands.TUICmd{}
	cmd.SetInput(strings.NewReader("q"))
	var out bytes.Buffer
	if code := cmd.Run(ctx, cfg, store, nil, &out, &errOut); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}

	if strings.Contains(errOut.String(), "snapshot reconciled") {
		t.Errorf("log output leaked onto stderr: %q", errOut.String())
	}
	data, err := os.ReadFile(cfg.TUILogPath())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "snapshot reconciled") {
		t.Errorf("expected debug log in %s, got %q", config.TUILogFile, data)
	}
}
