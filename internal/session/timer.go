package session

import (
	"context"
	"encoding/json"
	"time"
)

// Countdown decrements the session clock once per second, persisting the
// remaining time each tick, and fires onExpire with the buffered answers when
// it reaches zero. The timer is advisory; the store keeps the authoritative
// start timestamp.
func Countdown(ctx context.Context, st *State, store Store, onExpire func(answers map[string]json.RawMessage)) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if st.TimeLeft > 0 {
				st.TimeLeft--
			}
			if err := store.Save(st); err != nil {
				return err
			}
			if st.TimeLeft == 0 {
				onExpire(st.Answers)
				return nil
			}
		}
	}
}
