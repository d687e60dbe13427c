package procexec

import "strings"

// Spec describes one process invocation. It must not be modified once
// Execute has been called with it.
type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  []string // nil inherits the current environment

	// Append keeps the runner's previous output and adds to it instead of
	// starting a fresh buffer.
	Append bool

	// rawLine is passed verbatim as the Windows command line. cmd.exe does
	// not understand the escaping os/exec applies to Args.
	rawLine string
}

func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Path
	}
	return s.Path + " " + strings.Join(s.Args, " ")
}
