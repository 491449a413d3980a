package cli

import (
	"context"
	"fmt"

	"github.com/nxpkg/nxpkg/internal"
)

// VersionCmd is the 'nxpkg version' command.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
