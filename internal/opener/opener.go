// Package opener reveals a folder in the host's file manager.
package opener

import (
	"fmt"

	"github.com/skratchdot/open-golang/open"
)

// Opener hands folders to the desktop's default handler: Explorer on
// Windows, Finder on macOS and xdg-open elsewhere.
type Opener struct {
	// Start launches the handler for target without waiting for it.
	Start func(target string) error
}

// New returns an Opener for the running platform.
func New() *Opener {
	return &Opener{Start: open.Start}
}

// Open reveals dir.
func (o *Opener) Open(dir string) error {
	if err := o.Start(dir); err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	return nil
}
