package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/medulla-kb/medulla/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })
	if err := config.Initialize(); err != nil {
		t.Fatal(err)
	}
}

func TestInitThenEntityCreateAndGet(t *testing.T) {
	chdirTemp(t)

	if _, err := runCLI(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, err := runCLI(t, "entity", "create", "task", "--title", "Ship the CLI")
	if err != nil {
		t.Fatalf("entity create: %v", err)
	}
	var created map[string]any
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("unmarshal create output: %v\noutput: %s", err, out)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected an id in create output, got: %s", out)
	}

	out, err = runCLI(t, "entity", "get", "task", id)
	if err != nil {
		t.Fatalf("entity get: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("Ship the CLI")) {
		t.Fatalf("expected title in get output, got: %s", out)
	}
}

func TestInitTwiceFails(t *testing.T) {
	chdirTemp(t)

	if _, err := runCLI(t, "init"); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runCLI(t, "init"); err == nil {
		t.Fatal("expected second init to fail")
	}
}

func TestEntityBatchCreatesAndReportsResults(t *testing.T) {
	chdirTemp(t)

	if _, err := runCLI(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(bytes.NewBufferString(`[
		{"op": "create", "type": "task", "title": "Batch task one"},
		{"op": "create", "type": "task", "title": "Batch task two"},
		{"op": "delete", "type": "task", "ref": "does-not-exist"}
	]`))
	root.SetArgs([]string{"entity", "batch"})
	if err := root.Execute(); err != nil {
		t.Fatalf("entity batch: %v", err)
	}

	var res entityBatchResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal batch output: %v\noutput: %s", err, out.String())
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 succeeded, 1 failed; got %+v", res)
	}

	listOut, err := runCLI(t, "entity", "list", "task")
	if err != nil {
		t.Fatalf("entity list: %v", err)
	}
	if !bytes.Contains([]byte(listOut), []byte("Batch task one")) || !bytes.Contains([]byte(listOut), []byte("Batch task two")) {
		t.Fatalf("expected both batch-created tasks in list output, got: %s", listOut)
	}
}

func TestSearchFulltextFindsCreatedEntity(t *testing.T) {
	chdirTemp(t)

	if _, err := runCLI(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := runCLI(t, "entity", "create", "note", "--title", "Onboarding checklist", "--content", "steps to ramp up"); err != nil {
		t.Fatalf("entity create: %v", err)
	}

	out, err := runCLI(t, "search", "fulltext", "onboarding")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("Onboarding checklist")) {
		t.Fatalf("expected search hit, got: %s", out)
	}
}
