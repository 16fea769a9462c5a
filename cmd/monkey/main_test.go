package main

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePanic(t *testing.T) {
	t.Cleanup(func() {
		osWriteFile = os.WriteFile
		osExit = os.Exit
	})

	t.Run("writes the panic log", func(t *testing.T) {
		var (
			written []byte
			name    string
			code    = -1
		)
		osWriteFile = func(n string, data []byte, _ os.FileMode) error {
			name, written = n, data
			return nil
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, panicLogFile, name)
		require.NotEmpty(t, written)
		assert.Contains(t, string(written), "panic: boom")
		assert.Contains(t, string(written), "goroutine")
		assert.Equal(t, 2, code)
	})

	t.Run("write failure still exits", func(t *testing.T) {
		code := -1
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("boom")
		}()
		assert.Equal(t, 2, code)
	})

	t.Run("no panic", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }
		func() {
			defer handlePanic()
		}()
		assert.False(t, called)
	})
}
