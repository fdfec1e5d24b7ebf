package listener

import "errors"

var errAlreadyRunning = errors.New("listener already running")
