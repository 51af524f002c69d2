package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ByLCY/silicate"
	"github.com/ByLCY/silicate/fonts"
	"github.com/ByLCY/silicate/layout"
)

func newLanguagesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "languages",
		Aliases: []string{"list-languages"},
		Short:   "List the languages that can be highlighted",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs, err := silicate.ListLanguages()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), langs)
			}
			printLanguages(cmd.OutOrStdout(), langs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	return cmd
}

func newThemesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "themes",
		Aliases: []string{"list-themes"},
		Short:   "List the available themes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			themes, err := silicate.ListThemes()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), themes)
			}
			printThemes(cmd.OutOrStdout(), themes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	return cmd
}

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List the built-in fonts",
		Long: `List the fonts embedded in the binary. Any other name in a font list is
treated as a font file path (when it has an extension or a path separator)
or looked up among the system fonts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range fonts.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// printLanguages 每行一个语言：名称 + 别名与扩展名。
func printLanguages(w io.Writer, langs []silicate.LanguageDescriptor) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	for _, l := range langs {
		bold.Fprint(w, l.Name)
		var extra []string
		if len(l.Aliases) > 0 {
			extra = append(extra, "aliases: "+strings.Join(l.Aliases, ", "))
		}
		if len(l.Extensions) > 0 {
			extra = append(extra, "ext: "+strings.Join(l.Extensions, ", "))
		}
		if len(extra) > 0 {
			faint.Fprintf(w, "  (%s)", strings.Join(extra, "; "))
		}
		fmt.Fprintln(w)
	}
}

// printThemes 每行一个主题，前面是背景色色块。
func printThemes(w io.Writer, themes []silicate.ThemeDescriptor) {
	for _, t := range themes {
		swatch := "  "
		if c, err := layout.ParseHexColor(t.Background); err == nil {
			swatch = color.BgRGB(c.R, c.G, c.B).Sprint("  ")
		}
		kind := "light"
		if t.Dark {
			kind = "dark"
		}
		fmt.Fprintf(w, "%s %-28s %s %s\n", swatch, t.Name, t.Background, kind)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
