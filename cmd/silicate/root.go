package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ByLCY/silicate/config"
	"github.com/ByLCY/silicate/logging"
)

var errUsage = errors.New("usage error")

// rootFlags 是所有子命令共享的全局参数。
type rootFlags struct {
	configPath string
	logLevel   string
	jsonLog    bool
	noColor    bool

	// file 是 PersistentPreRunE 解析出的配置（配置文件 + 环境变量）
	file config.File
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "silicate",
		Short: "Render source code into images",
		Long: `silicate renders source code into an image of a code window with syntax
highlighting, line numbers, window controls, padding and a drop shadow.

Defaults are read from $XDG_CONFIG_HOME/silicate/config.yaml (or --config),
a .env file in the working directory and SILICATE_* environment variables.
Command-line flags take precedence over all of them.

Examples:
  silicate render main.go                    Write main.png
  silicate render -o out.svg main.go         Write an SVG
  cat main.py | silicate render -o code.png  Read from stdin
  silicate themes                            List the available themes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "配置文件路径（默认 $XDG_CONFIG_HOME/silicate/config.yaml）")
	pf.StringVar(&flags.logLevel, "log-level", "", "日志级别：debug/info/warn/error")
	pf.BoolVar(&flags.jsonLog, "json-log", false, "以 JSON 输出日志")
	pf.BoolVar(&flags.noColor, "no-color", false, "关闭彩色输出")

	root.AddCommand(newRenderCmd(flags), newLanguagesCmd(), newThemesCmd(), newFontsCmd())
	return root
}

// setup 加载配置并初始化日志，命令行参数优先于配置中的 log_level。
func (f *rootFlags) setup(cmd *cobra.Command) error {
	if f.noColor {
		color.NoColor = true
	}
	logging.Setup(cmd.ErrOrStderr(), logging.Options{JSON: f.jsonLog, NoColor: color.NoColor})

	file, err := config.Resolve(f.configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	f.file = file

	level := f.logLevel
	if level == "" && file.LogLevel != nil {
		level = *file.LogLevel
	}
	if level != "" {
		lvl, ok := logging.ParseLevel(level)
		if !ok {
			return fmt.Errorf("%w: 无效的日志级别 %q", errUsage, level)
		}
		logging.SetLevel(lvl)
	}
	return nil
}
