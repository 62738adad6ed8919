package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranslateSuccess(t *testing.T) {
	dir := inTempDir(t)
	src := writeSource(t, dir, "beep.son",
		"program beep() { var s: wave; s[c,i:r] = sinewave(0.5, 440, 0); }\n")

	if code := run([]string{src}, false); code != 0 {
		t.Fatalf("run returned %d", code)
	}

	out, err := os.ReadFile(filepath.Join(dir, "beep.cpp"))
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	first := strings.SplitN(string(out), "\n", 2)[0]
	if !strings.Contains(first, "generated by Sonic/C++ translator v ") {
		t.Fatalf("first line does not identify the translator: %q", first)
	}
}

func TestMultiFileTranslation(t *testing.T) {
	dir := inTempDir(t)
	lib := writeSource(t, dir, "lib.son",
		"function gain(v: real) : real { return 2 * v; }\n")
	main := writeSource(t, dir, "app.son",
		"program app() { var x : real; x = gain(0.5); }\n")

	if code := run([]string{lib, main}, false); code != 0 {
		t.Fatal("multi-file translation failed")
	}
	if _, err := os.Stat(filepath.Join(dir, "app.cpp")); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

func TestSemanticErrorLeavesNoOutput(t *testing.T) {
	dir := inTempDir(t)
	src := writeSource(t, dir, "bad.son",
		"program bad() { var x : real; if (x) x = 0; }\n")

	if code := run([]string{src}, false); code != 1 {
		t.Fatal("expected failure exit code")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.cpp")); !os.IsNotExist(err) {
		t.Fatal("failed translation must not leave an output file")
	}
}

func TestMissingSourceFile(t *testing.T) {
	inTempDir(t)
	if code := run([]string{"no-such-file.son"}, false); code != 1 {
		t.Fatal("expected failure exit code")
	}
}
