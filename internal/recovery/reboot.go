package recovery

import (
	"fmt"
	"os"
	"time"
)

// Trigger requests a transition into recovery mode. The request is
// fire-and-forget: the host acts on it asynchronously.
type Trigger interface {
	RequestRecovery() error
}

// PowerctlTrigger requests recovery by writing to the power control node
// watched by init.
type PowerctlTrigger struct {
	Path string
	// Wait is how long to linger after the request so init can act on it
	// before the process carries on.
	Wait time.Duration
}

// RequestRecovery writes the reboot request and waits; if the process is
// still alive afterwards the caller simply continues.
func (t *PowerctlTrigger) RequestRecovery() error {
	if err := os.WriteFile(t.Path, []byte("reboot,recovery"), 0o600); err != nil {
		return fmt.Errorf("failed to request recovery reboot: %w", err)
	}
	time.Sleep(t.Wait)
	return nil
}
