package fetch

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// runCommand runs a configured external command line with extra
// arguments appended. Output is only surfaced on failure.
func runCommand(cmdline string, args ...string) error {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return errors.New("empty external command")
	}
	cmd := exec.Command(fields[0], append(fields[1:], args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", fields[0], err, bytes.TrimSpace(out))
	}
	return nil
}
