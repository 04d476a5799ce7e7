package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSearchTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "search"}
	cmd.SetOut(out)
	addSearchFlags(cmd)
	return cmd
}

var searchLines = []string{
	"2025-01-26 10:00:00 user alice has logged in",
	"2025-01-26 10:00:01 request timed out after 30s",
	"2025-01-26 10:00:02 user bob has logged in",
	"2025-01-26 10:00:03 request timed out after 31s",
	"2025-01-26 10:00:04 user carol has logged in",
}

func TestSearchByCluster(t *testing.T) {
	resetConfig(t)

	file := writeTempFile(t, t.TempDir(), "app.log", searchLines)

	var out bytes.Buffer
	cmd := newSearchTestCmd(&out)
	if err := cmd.Flags().Set("cluster", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runSearch(cmd, []string{file}); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}

	want := searchLines[1] + "\n" + searchLines[3] + "\n"
	if out.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestSearchByPatternCount(t *testing.T) {
	resetConfig(t)

	file := writeTempFile(t, t.TempDir(), "app.log", searchLines)

	var out bytes.Buffer
	cmd := newSearchTestCmd(&out)
	if err := cmd.Flags().Set("pattern", "logged in$"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cmd.Flags().Set("count", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runSearch(cmd, []string{file}); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}

	want := "0\t3\tuser alice has logged in\nTotal: 3\n"
	if out.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestSearchJSON(t *testing.T) {
	resetConfig(t)
	viper.Set("format", "json")

	file := writeTempFile(t, t.TempDir(), "app.log", searchLines)

	var out bytes.Buffer
	cmd := newSearchTestCmd(&out)
	if err := cmd.Flags().Set("cluster", "0"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runSearch(cmd, []string{file}); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}

	var matches []searchMatch
	if err := json.Unmarshal(out.Bytes(), &matches); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v\noutput: %s", err, out.String())
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[1].Line != 3 || matches[1].Cluster != 0 {
		t.Errorf("unexpected second match: %+v", matches[1])
	}
}

func TestSearchExplain(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "joins existing cluster",
			message: "user dave has logged in",
			want:    []string{"would join cluster 0: user alice has logged in", "distance 1, similarity 0.800"},
		},
		{
			name:    "starts new cluster",
			message: "disk full",
			want:    []string{"would start a new cluster; nearest is cluster"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			viper.Set("similarity", 0.7)

			file := writeTempFile(t, t.TempDir(), "app.log", searchLines)

			var out bytes.Buffer
			cmd := newSearchTestCmd(&out)
			if err := cmd.Flags().Set("explain", tt.message); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			if err := runSearch(cmd, []string{file}); err != nil {
				t.Fatalf("runSearch() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("expected %q, got:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestSearchFlagValidation(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{name: "nothing selected", flags: map[string]string{}},
		{name: "explain with cluster", flags: map[string]string{"explain": "x", "cluster": "1"}},
		{name: "negative cluster", flags: map[string]string{"cluster": "-1"}},
		{name: "bad regex", flags: map[string]string{"pattern": "("}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)

			var out bytes.Buffer
			cmd := newSearchTestCmd(&out)
			for k, v := range tt.flags {
				if err := cmd.Flags().Set(k, v); err != nil {
					t.Fatalf("Set(%s) error = %v", k, err)
				}
			}

			if err := runSearch(cmd, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}
