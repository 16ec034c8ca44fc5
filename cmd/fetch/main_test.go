package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCmd_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown class", []string{"price", "bonds", "AAPL"}, "unknown asset class"},
		{"missing symbol", []string{"price", "stocks"}, "accepts 2 arg(s)"},
		{"empty batch", []string{"batch"}, "--stocks or --crypto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			cmd := newRootCmd(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()

			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUpper(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"AAPL", "BTC"}, upper([]string{" aapl", "", "btc "}))
}
