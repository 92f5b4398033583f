package input

import (
	"fmt"
	"io"
	"time"

	"github.com/dshills/xchainkeys/internal/input/key"
)

// ShowKeys grabs the keyboard and writes the keyspec of every key press
// to w until quit is pressed.
func ShowKeys(s Session, quit key.Key, w io.Writer) (err error) {
	if err := s.GrabKeyboard(); err != nil {
		return fmt.Errorf("grab keyboard: %w", err)
	}
	defer func() {
		if uerr := s.UngrabKeyboard(); uerr != nil && err == nil {
			err = fmt.Errorf("ungrab keyboard: %w", uerr)
		}
	}()

	locks := s.LockMask()
	for {
		ev, ok, err := s.NextEvent(time.Time{})
		if err != nil {
			return err
		}
		if !ok || ev.IsModifier {
			continue
		}
		if key.MatchesLive(quit, ev.Key, locks) {
			return nil
		}
		if _, err := fmt.Fprintln(w, ev.Key); err != nil {
			return err
		}
	}
}
