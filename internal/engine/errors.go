package engine

import "errors"

// ErrClosedSession is returned by every Engine method except Close and
// IsClosed once the session has been closed.
var ErrClosedSession = errors.New("engine: session is closed")
