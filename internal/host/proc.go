package host

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ActiveCommand returns the command currently running inside a shell
// process, for tab relabeling: the first child of the shell, or the shell
// itself when idle. Works on macOS and Linux using POSIX ps flags.
func ActiveCommand(shellPID int) (name, cmdLine string, err error) {
	children, err := childProcesses(shellPID)
	if err != nil {
		return "", "", err
	}

	if len(children) == 0 {
		line, err := commandLine(shellPID)
		if err != nil {
			return "", "", err
		}
		return commandName(line), line, nil
	}

	// The first child is usually what the user ran.
	return commandName(children[0]), children[0], nil
}

// commandLine returns the full command line for a process.
func commandLine(pid int) (string, error) {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "args=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ps command failed: %w: %s", err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// childProcesses returns the command lines of the direct children of pid.
func childProcesses(pid int) ([]string, error) {
	cmd := exec.Command("ps", "-eo", "pid=,ppid=,args=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ps failed: %w: %s", err, stderr.String())
	}

	parent := strconv.Itoa(pid)
	var children []string

	for _, line := range strings.Split(stdout.String(), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 3 || fields[1] != parent {
			continue
		}
		children = append(children, strings.Join(fields[2:], " "))
	}

	return children, nil
}

// commandName extracts the bare command name from a command line,
// stripping any leading path ("/usr/local/bin/node" -> "node").
func commandName(cmdLine string) string {
	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return ""
	}
	name := parts[0]
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
