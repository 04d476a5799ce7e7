package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// resetConfig clears viper and applies the settings every command test shares.
func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	viper.Set("timezone", "UTC")
	viper.Set("quiet", true)
	t.Cleanup(viper.Reset)
}

func writeTempFile(t *testing.T, dir string, name string, lines []string) string {
	path := filepath.Join(dir, name)
	content := []byte(joinLines(lines))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func joinLines(lines []string) string {
	buf := bytes.Buffer{}
	for i, line := range lines {
		buf.WriteString(line)
		if i < len(lines)-1 {
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// hostLines have one dummy token before the message body.
var hostLines = []string{
	"2020-01-01 00:00:00 error on host A",
	"2020-01-01 00:01:00 error on host B",
	"2020-01-01 00:40:00 error on host C",
}
