package process

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/prometheus/procfs"
)

// maxCommLen is the kernel's limit on /proc/<pid>/comm (TASK_COMM_LEN - 1).
const maxCommLen = 15

// interpreterRE matches launchers whose first script argument names the program.
var interpreterRE = regexp.MustCompile(`^(python[0-9.]*|sh|bash|dash|perl|ruby|node)$`)

// KillByName sends SIGKILL to every process named name. The calling process
// and its ancestors are skipped, so a wrapper like sudo or nohup that carries
// the name in its own arguments survives.
//
// This is a fallback for workers a shell wrapper forked outside the tracked
// process group. Individual kill failures are not reported; the returned error
// only covers listing /proc.
func KillByName(name string) (int, error) {
	if name == "" {
		return 0, nil
	}

	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0, fmt.Errorf("open procfs: %w", err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	skip := ancestors(fs, os.Getpid())
	killed := 0
	for _, p := range procs {
		if skip[p.PID] {
			continue
		}
		// Either may fail for processes that exit mid-scan
		comm, _ := p.Comm()
		cmdline, _ := p.CmdLine()
		if !MatchesName(name, comm, cmdline) {
			continue
		}
		if err := syscall.Kill(p.PID, syscall.SIGKILL); err == nil {
			killed++
		}
	}
	return killed, nil
}

// ancestors returns pid and every parent above it up to init.
func ancestors(fs procfs.FS, pid int) map[int]bool {
	seen := map[int]bool{pid: true}
	for pid > 1 {
		p, err := fs.Proc(pid)
		if err != nil {
			break
		}
		stat, err := p.Stat()
		if err != nil || stat.PPID <= 0 || seen[stat.PPID] {
			break
		}
		pid = stat.PPID
		seen[pid] = true
	}
	return seen
}

// MatchesName reports whether a process with the given comm and argv is named name.
// Only the program itself is considered: argv[0], or the script an interpreter
// runs. Other arguments such as flag values never match.
func MatchesName(name, comm string, cmdline []string) bool {
	if name == "" {
		return false
	}
	if comm == name || (len(name) > maxCommLen && comm == name[:maxCommLen]) {
		return true
	}
	if len(cmdline) == 0 || cmdline[0] == "" {
		return false
	}
	prog := filepath.Base(cmdline[0])
	if prog == name {
		return true
	}
	if !interpreterRE.MatchString(prog) {
		return false
	}
	script := scriptArg(cmdline[1:])
	return script != "" && filepath.Base(script) == name
}

// scriptArg returns the first argument that is not an interpreter option.
func scriptArg(args []string) string {
	for _, a := range args {
		if a == "" || strings.HasPrefix(a, "-") {
			continue
		}
		return a
	}
	return ""
}
