package sandbox

import "github.com/joeycumines/goja-sandbox/lattice"

// ToolFunc is a host function reachable from sandboxed script as a
// top-level name. args are already marshalled into the lattice; the
// returned Value crosses back the same way. userdata is whatever the
// registering Tool carried, threaded through unchanged.
type ToolFunc func(args []lattice.Value, userdata any) (lattice.Value, error)

// Tool names one host function a session exposes to sandboxed script.
type Tool struct {
	Name     string
	Func     ToolFunc
	Userdata any
}

// toolBinding is the resolved, de-pointered form stored on sessionOptions
// and replayed during construction.
type toolBinding struct {
	name     string
	fn       ToolFunc
	userdata any
}
