package vfs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "units", true},
		{"with dot", "tank.ini", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidName)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	segs, err := SplitPath("/units//tanks/./heavy/")
	require.NoError(t, err)
	assert.Equal(t, []string{"units", "tanks", "heavy"}, segs)

	segs, err = SplitPath("")
	require.NoError(t, err)
	assert.Empty(t, segs)

	_, err = SplitPath("units/../../etc")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = SplitPath(`units\..\x`)
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CodeNotFound, Classify(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, CodeNameConflict, Classify(ErrNameConflict))
	assert.Equal(t, CodePermissionDenied, Classify(ErrPermissionDenied))
	assert.Equal(t, CodeIOFailure, Classify(errors.New("disk on fire")))
	assert.Equal(t, CodeIOFailure, Classify(IOError("read", "a", errors.New("eio"))))
	assert.ErrorIs(t, IOError("read", "a", errors.New("eio")), ErrIO)
}
