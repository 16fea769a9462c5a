// internal/browser/context_utils_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type ctxKey string

const testKey ctxKey = "session"

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("InheritsValuesFromPrimary", func(t *testing.T) {
		primary := context.WithValue(context.Background(), testKey, "tab-1")

		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", combined.Value(testKey))
		assert.NoError(t, combined.Err())
	})

	t.Run("CancelledByPrimary", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()

		assert.Eventually(t, func() bool { return combined.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("CancelledBySecondaryDeadline", func(t *testing.T) {
		primary, cancelPrimary := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelPrimary()
		secondary, cancelSecondary := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancelSecondary()

		combined, cancel := CombineContext(primary, secondary)
		defer cancel()

		<-combined.Done()
		assert.ErrorIs(t, secondary.Err(), context.DeadlineExceeded)
		// The combined context is cancelled by the watcher, not by a deadline of its own.
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("DeadlineFromPrimary", func(t *testing.T) {
		deadline := time.Now().Add(50 * time.Millisecond)
		primary, cancelPrimary := context.WithDeadline(context.Background(), deadline)
		defer cancelPrimary()

		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		got, ok := combined.Deadline()
		require.True(t, ok)
		assert.Equal(t, deadline, got)
	})

	t.Run("ExplicitCancellation", func(t *testing.T) {
		combined, cancel := CombineContext(context.Background(), context.Background())
		cancel()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	t.Run("InheritsValues", func(t *testing.T) {
		detached := Detach(context.WithValue(context.Background(), testKey, "tab-2"))
		assert.Equal(t, "tab-2", detached.Value(testKey))
	})

	t.Run("IgnoresParentCancellation", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		detached := Detach(parent)
		cancel()

		assert.ErrorIs(t, parent.Err(), context.Canceled)
		assert.NoError(t, detached.Err())
		assert.Nil(t, detached.Done())
	})

	t.Run("IgnoresParentDeadline", func(t *testing.T) {
		parent, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		detached := Detach(parent)
		<-parent.Done()

		_, ok := detached.Deadline()
		assert.False(t, ok)
		assert.NoError(t, detached.Err())
	})

	t.Run("DerivedTimeoutStillApplies", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(context.Background())
		derived, cancel := context.WithTimeout(Detach(parent), 30*time.Millisecond)
		defer cancel()

		cancelParent()
		assert.NoError(t, derived.Err(), "parent cancellation must not reach the derived context")

		<-derived.Done()
		assert.ErrorIs(t, derived.Err(), context.DeadlineExceeded)
	})
}
