package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reelspro/reelspro/internal/ui/registerform"
)

func TestTerminalNavigator_LoginOffersRegisterLink(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	nav := &terminalNavigator{out: &out, done: make(chan struct{})}
	nav.Navigate(registerform.LoginPath)
	nav.Navigate(registerform.LoginPath)

	assert.Contains(t, out.String(), "-> /login\n")
	assert.Contains(t, out.String(), "Don't have an account? Register here. (/register)\n")

	select {
	case <-nav.done:
	default:
		t.Fatal("navigation did not signal done")
	}
}
