package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/cairokit/internal/toolchain"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "generic error", err: errors.New("boom"), want: 1},
		{name: "compiler exit code", err: &toolchain.ExitError{Code: 101}, want: 101},
		{name: "wrapped compiler exit code", err: fmt.Errorf("compile: %w", &toolchain.ExitError{Code: 3}), want: 3},
		{name: "killed compiler", err: &toolchain.ExitError{Code: -1}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
