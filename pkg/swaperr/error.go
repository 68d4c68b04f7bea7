// Package swaperr defines the structured error type returned by every layer of
// the swap system.
package swaperr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Category classifies errors by how a caller should react to them.
type Category int

const (
	// CategoryUser covers bad arguments: unknown states, regions outside an
	// address space, mismatched steps. Fixable by changing the request.
	CategoryUser Category = iota

	// CategoryTransient covers failures that may succeed on retry, such as a
	// cancelled context or a full cache tier.
	CategoryTransient

	// CategorySystem covers I/O failures of the backing stores.
	CategorySystem

	// CategoryData covers malformed page contents read back from a store.
	CategoryData

	// CategoryConfig covers swap chains that can never be valid: broken
	// swapper chains, duplicate states, page sizes that are not related by
	// a power of two.
	CategoryConfig
)

func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategoryTransient:
		return "transient"
	case CategorySystem:
		return "system"
	case CategoryData:
		return "data"
	case CategoryConfig:
		return "config"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Error codes.
const (
	CodeIllegalArgument       = "ILLEGAL_ARGUMENT"
	CodeInvalidConfig         = "INVALID_CONFIG"
	CodeChainDiscontinuous    = "CHAIN_DISCONTINUOUS"
	CodeDuplicateState        = "DUPLICATE_STATE"
	CodePageSizeNotPowerOfTwo = "PAGE_SIZE_NOT_POWER_OF_TWO"
	CodeCapacityMisaligned    = "CAPACITY_MISALIGNED"
	CodeSwapChainBroken       = "SWAP_CHAIN_BROKEN"
	CodeRegionOutOfRange      = "REGION_OUT_OF_RANGE"
	CodeStepMismatch          = "STEP_MISMATCH"
	CodeStoreIO               = "STORE_IO"
	CodeCacheFull             = "CACHE_FULL"
	CodePageSizeMismatch      = "PAGE_SIZE_MISMATCH"
	CodeOperationCancelled    = "OPERATION_CANCELLED"
	CodeUnknownStoreKind      = "UNKNOWN_STORE_KIND"
	CodeCorruptPage           = "CORRUPT_PAGE"
)

// SwapError is a structured error with enough context to tell which swap
// operation and component failed.
type SwapError struct {
	// Code identifies the error type, e.g. "SWAP_CHAIN_BROKEN".
	Code string

	// Category tells the caller how to handle the error.
	Category Category

	// Message is the human-readable description.
	Message string

	// Detail carries instance specifics, e.g. "state 'cache' appears twice".
	Detail string

	// Hint suggests a fix.
	Hint string

	// Operation is what was running, e.g. "CreateSwapOperation", "ReadIn".
	Operation string

	// Component is where the error originated, e.g. "SwapSystem", "FileStore".
	Component string

	// Cause is the underlying error, if any.
	Cause error

	// Stack is captured by New and Wrap.
	Stack []uintptr
}

// New creates a SwapError with the given category, code and message.
func New(category Category, code, message string) *SwapError {
	return &SwapError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Newf is New with a formatted message.
func Newf(category Category, code, format string, args ...any) *SwapError {
	return &SwapError{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Stack:    captureStack(),
	}
}

// IllegalArgument is shorthand for a CategoryUser ILLEGAL_ARGUMENT error.
func IllegalArgument(format string, args ...any) *SwapError {
	return &SwapError{
		Code:     CodeIllegalArgument,
		Category: CategoryUser,
		Message:  fmt.Sprintf(format, args...),
		Stack:    captureStack(),
	}
}

// Wrap wraps err with swap context. If err already is a SwapError the
// operation and component are filled in when missing and the same value is
// returned. Foreign errors become CategorySystem errors with the given code.
func Wrap(err error, code, operation, component string) *SwapError {
	if err == nil {
		return nil
	}

	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		if swapErr.Operation == "" {
			swapErr.Operation = operation
		}
		if swapErr.Component == "" {
			swapErr.Component = component
		}
		return swapErr
	}

	return &SwapError{
		Code:      code,
		Category:  CategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// WithDetail sets Detail and returns the receiver for chaining.
func (e *SwapError) WithDetail(format string, args ...any) *SwapError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint sets Hint and returns the receiver for chaining.
func (e *SwapError) WithHint(hint string) *SwapError {
	e.Hint = hint
	return e
}

// In sets Operation and Component and returns the receiver for chaining.
func (e *SwapError) In(operation, component string) *SwapError {
	e.Operation = operation
	e.Component = component
	return e
}

// captureStack skips captureStack, the constructor and runtime.Callers itself.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error formats as
// [CODE] Message: Detail (operation: Operation, component: Component) caused by: cause
func (e *SwapError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}

	if e.Operation != "" {
		fmt.Fprintf(&b, " (operation: %s", e.Operation)
		if e.Component != "" {
			fmt.Fprintf(&b, ", component: %s", e.Component)
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, " caused by: %v", e.Cause)
	}

	return b.String()
}

// Unwrap returns the cause so errors.Is and errors.As see through the wrapper.
func (e *SwapError) Unwrap() error {
	return e.Cause
}

// Is matches another *SwapError by code, so sentinel-style comparisons work:
//
//	errors.Is(err, &swaperr.SwapError{Code: swaperr.CodeDuplicateState})
func (e *SwapError) Is(target error) bool {
	t, ok := target.(*SwapError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// FormatStack returns a human-readable stack trace.
func (e *SwapError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "  %s\n    %s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}

	return b.String()
}

// CodeOf returns the code of the first SwapError in err's chain, or "".
func CodeOf(err error) string {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr.Code
	}
	return ""
}

// IsCode reports whether err's chain holds a SwapError with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CategoryOf returns the category of the first SwapError in err's chain.
// Errors from outside the package are treated as CategorySystem.
func CategoryOf(err error) Category {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr.Category
	}
	return CategorySystem
}
