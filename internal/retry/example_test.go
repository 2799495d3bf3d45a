package retry_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coral-mesh/kbchat/internal/retry"
)

var errUnavailable = errors.New("service unavailable")

// Example waits for a service that comes up on the third attempt.
func Example() {
	cfg := retry.Config{
		MaxRetries:     5,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
	}

	attempt := 0
	err := retry.Do(context.Background(), cfg, func() error {
		attempt++
		if attempt < 3 {
			return errUnavailable
		}
		return nil
	}, func(err error) bool {
		return errors.Is(err, errUnavailable)
	})

	if err != nil {
		fmt.Printf("Failed: %v\n", err)
	} else {
		fmt.Printf("Up after %d attempts\n", attempt)
	}
	// Output: Up after 3 attempts
}
