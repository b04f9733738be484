package coordinator

import (
	"os/exec"

	"github.com/go-errors/errors"
)

// OpenInApp opens the active session's path with a configured application
// (e.g. "editor"). The application detaches; its lifetime is not tracked.
func (c *Coordinator) OpenInApp(app string) error {
	sess, ok := c.registry.Active()
	if !ok {
		return errors.Errorf("no active session")
	}

	c.mu.Lock()
	command, ok := c.cfg.AppOpen[app]
	c.mu.Unlock()
	if !ok {
		return errors.Errorf("no open command configured for %q", app)
	}

	cmd := exec.Command(command, sess.Path)
	if err := cmd.Start(); err != nil {
		return errors.Errorf("opening %s in %s: %w", sess.Path, app, err)
	}
	go cmd.Wait()

	c.log.Info("opened in app", "app", app, "path", sess.Path)
	return nil
}
