package train

import (
	"os/exec"
	"strings"
)

// GitCommit resolves the current commit id of the repository containing
// dir. Absence of git or of a repository is not an error; the version is
// simply absent.
func GitCommit(dir string) (string, bool) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	commit := strings.TrimSpace(string(out))
	if commit == "" {
		return "", false
	}
	return commit, true
}
