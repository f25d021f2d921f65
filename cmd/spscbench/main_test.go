// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spscbench.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunSequential(t *testing.T) {
	path := writeConfig(t, `
count: 1000
capacity: 64
batch: 8
mode: sequential
timeout: 10s
metrics: true
`)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", path, "-v"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run: exit %d\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "[main] run complete") {
		t.Fatalf("run: missing completion log:\n%s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "fib: run starting") {
		t.Fatalf("run: -v did not enable debug logs:\n%s", stderr.String())
	}
	if want := `spsc_pulled_total{mode="sequential",capacity="64"} 1000`; !strings.Contains(stdout.String(), want) {
		t.Fatalf("run: metrics missing %s:\n%s", want, stdout.String())
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-nope"}, 2},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}, 1},
		{"invalid config", []string{"-config", writeConfig(t, "batch: 0\n")}, 1},
		{"strict capacity", []string{"-config", writeConfig(t, "capacity: 100\nstrict: true\nmode: sequential\n")}, 1},
	}
	for _, tc := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), tc.args, &stdout, &stderr); code != tc.want {
			t.Fatalf("%s: exit %d, want %d\n%s", tc.name, code, tc.want, stderr.String())
		}
		if stdout.Len() != 0 {
			t.Fatalf("%s: unexpected stdout: %s", tc.name, stdout.String())
		}
	}
}

func TestRunCanceled(t *testing.T) {
	path := writeConfig(t, "count: 1000\ncapacity: 64\nmode: sequential\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{"-config", path}, &stdout, &stderr); code != 1 {
		t.Fatalf("run: exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "[main] run failed") {
		t.Fatalf("run: missing failure log:\n%s", stderr.String())
	}
}
