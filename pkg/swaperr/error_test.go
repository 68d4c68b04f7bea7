package swaperr

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatsAllParts(t *testing.T) {
	err := New(CategoryConfig, CodeDuplicateState, "swap state registered twice").
		WithDetail("state %q", "cache").
		In("NewStandardSwapSystem", "SwapSystem")

	assert.Equal(t,
		`[DUPLICATE_STATE] swap state registered twice: state "cache" (operation: NewStandardSwapSystem, component: SwapSystem)`,
		err.Error())
	assert.NotEmpty(t, err.Stack)
	assert.True(t, strings.HasPrefix(err.FormatStack(), "Stack trace:\n"))
}

func TestIllegalArgument(t *testing.T) {
	err := IllegalArgument("region %s is empty", "[0,0)")
	assert.Equal(t, CodeIllegalArgument, err.Code)
	assert.Equal(t, CategoryUser, err.Category)
	assert.Equal(t, "[ILLEGAL_ARGUMENT] region [0,0) is empty", err.Error())
}

func TestWrap_ForeignError(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeStoreIO, "ReadPage", "FileStore")
	require.NotNil(t, err)

	assert.Equal(t, CategorySystem, err.Category)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "caused by: unexpected EOF")
}

func TestWrap_EnrichesExistingSwapError(t *testing.T) {
	inner := New(CategoryTransient, CodeCacheFull, "cache full")
	wrapped := Wrap(fmt.Errorf("write page: %w", inner), CodeStoreIO, "ReadIn", "Swapper")

	assert.Same(t, inner, wrapped)
	assert.Equal(t, "ReadIn", wrapped.Operation)
	assert.Equal(t, "Swapper", wrapped.Component)

	again := Wrap(inner, CodeStoreIO, "Execute", "SwapSystem")
	assert.Equal(t, "ReadIn", again.Operation, "existing context is kept")
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeStoreIO, "op", "comp"))
}

func TestCodeHelpers(t *testing.T) {
	err := fmt.Errorf("plan: %w", New(CategoryConfig, CodeSwapChainBroken, "loop guard tripped"))

	assert.Equal(t, CodeSwapChainBroken, CodeOf(err))
	assert.True(t, IsCode(err, CodeSwapChainBroken))
	assert.False(t, IsCode(err, CodeStoreIO))
	assert.Equal(t, CategoryConfig, CategoryOf(err))
	assert.Equal(t, CategorySystem, CategoryOf(io.EOF))
	assert.Equal(t, "", CodeOf(io.EOF))
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CategoryUser, CodeRegionOutOfRange, "out of range"))

	assert.True(t, errors.Is(err, &SwapError{Code: CodeRegionOutOfRange}))
	assert.False(t, errors.Is(err, &SwapError{Code: CodeStepMismatch}))
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "config", CategoryConfig.String())
	assert.Equal(t, "transient", CategoryTransient.String())
	assert.Equal(t, "Category(42)", Category(42).String())
}
