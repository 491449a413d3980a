package cli

import "github.com/nxpkg/nxpkg/internal/errkind"

var errHealthCheckFailed = errkind.New(errkind.ConfigInvalid, "one or more health checks failed")
