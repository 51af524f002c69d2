package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"github.com/ByLCY/silicate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "错误: ")
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode 区分调用方输入问题（2）与运行时失败（1）。
func exitCode(err error) int {
	switch {
	case errors.Is(err, silicate.ErrInvalidInput),
		errors.Is(err, silicate.ErrUnknownLanguage),
		errors.Is(err, silicate.ErrUnknownTheme),
		errors.Is(err, errUsage):
		return 2
	default:
		return 1
	}
}
