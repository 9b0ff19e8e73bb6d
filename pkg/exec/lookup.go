package exec

import (
	"os/exec"
)

// LookupTools splits tools into those found on PATH and those missing.
func LookupTools(tools []string) (found, missing []string) {
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
			continue
		}
		found = append(found, tool)
	}
	return found, missing
}

// ShellName describes the shell ShellRunner uses.
func (r *ShellRunner) ShellName() string {
	return r.shell + " " + r.shellFlag
}
