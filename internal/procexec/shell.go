package procexec

import (
	"path/filepath"
	"runtime"
	"strings"
)

// ShellSpec is a shell binary and the arguments placed before the command
// line, e.g. cmd with /C or /bin/sh with -c.
type ShellSpec struct {
	Path string
	Args []string
}

// DefaultShell returns cmd /C on Windows and /bin/sh -c elsewhere.
func DefaultShell() ShellSpec {
	if runtime.GOOS == "windows" {
		return ShellSpec{Path: "cmd", Args: []string{"/C"}}
	}
	return ShellSpec{Path: "/bin/sh", Args: []string{"-c"}}
}

func (sh ShellSpec) isCmd() bool {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(sh.Path, `\`, "/")))
	return base == "cmd" || base == "cmd.exe"
}

// Quote quotes arg for the shell's command line.
func (sh ShellSpec) Quote(arg string) string {
	if sh.isCmd() {
		return `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// Line builds the command line the shell receives: script followed by
// each argument quoted.
func (sh ShellSpec) Line(script string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, script)
	for _, a := range args {
		parts = append(parts, sh.Quote(a))
	}
	return strings.Join(parts, " ")
}

// Command returns a Spec running script with args through the shell.
func (sh ShellSpec) Command(script string, args ...string) Spec {
	line := sh.Line(script, args...)
	shellArgs := append(append([]string(nil), sh.Args...), line)
	spec := Spec{Path: sh.Path, Args: shellArgs}
	if sh.isCmd() {
		// cmd strips the first and last quote of the line it is given,
		// so the whole line gets one extra pair.
		parts := append([]string{sh.Path}, sh.Args...)
		spec.rawLine = strings.Join(append(parts, `"`+line+`"`), " ")
	}
	return spec
}
