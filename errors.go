package silicate

import (
	"errors"
	"fmt"
)

// 调用方可以用 errors.Is 区分的错误类别。
var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrIO              = errors.New("i/o failure")
	ErrEngine          = errors.New("engine failure")
	ErrInvalidInput    = errors.New("invalid input")
)

func wrapUnknownLanguage(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
}

func wrapUnknownTheme(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTheme, name)
}

func wrapIO(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}

func wrapEngine(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEngine, stage, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
