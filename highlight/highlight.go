package highlight

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/ByLCY/silicate/layout"
	"github.com/ByLCY/silicate/logging"
)

// DefaultTabWidth 是制表符展开的默认列宽。
const DefaultTabWidth = 4

var ErrTokenise = errors.New("tokenise failed")

// TokeniseTimeout 限制单次分词的耗时。超时的 lexer 被记入 stalled，
// 本次及之后的调用都按纯文本处理。
var TokeniseTimeout = 3 * time.Second

// stalled 记录不会结束的 lexer（按名称）。分词无法中途取消，
// 超时的 goroutine 会一直运行，所以同一个 lexer 只允许超时一次。
var stalled sync.Map

func init() {
	// Jungle 的零宽规则在 instruction/var 之间来回压栈，对普通输入也不会结束
	stalled.Store("Jungle", struct{}{})
}

// Highlight 对源码做语法高亮，返回每一行带样式的文本片段。
// 换行统一为 \n，制表符按列对齐展开为空格；末尾单个换行不产生额外空行。
func Highlight(lexer chroma.Lexer, style *chroma.Style, source string, tabWidth int) ([]layout.SourceLine, error) {
	if lexer == nil || style == nil {
		return nil, fmt.Errorf("%w: 缺少 lexer 或主题", ErrTokenise)
	}
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.TrimSuffix(source, "\n")
	want := strings.Count(source, "\n") + 1

	tokens, err := tokenise(lexer, source)
	if err != nil {
		return nil, err
	}

	palette := Palette(style)
	out := make([]layout.SourceLine, 0, want)
	for _, tokens := range chroma.SplitTokensIntoLines(tokens) {
		if len(out) == want {
			break
		}
		var line layout.SourceLine
		col := 0
		for _, tok := range tokens {
			text := strings.TrimRight(tok.Value, "\r\n")
			if text == "" {
				continue
			}
			text, col = expandTabs(text, col, tabWidth)
			line.Spans = append(line.Spans, spanFor(style, palette, tok.Type, text))
		}
		out = append(out, line)
	}
	// lexer 可能吞掉末尾空行，这里补齐，保证行数与源码一致。
	for len(out) < want {
		out = append(out, layout.SourceLine{})
	}
	return out, nil
}

// tokenise 在 TokeniseTimeout 内完成分词，超时或 lexer 已知会卡死时退回纯文本。
func tokenise(lexer chroma.Lexer, source string) ([]chroma.Token, error) {
	name := ""
	if cfg := lexer.Config(); cfg != nil {
		name = cfg.Name
	}
	if _, bad := stalled.Load(name); bad {
		return plainTokens(source)
	}

	type result struct {
		tokens []chroma.Token
		err    error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			// chroma 的 mutator 出错时会 panic
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %s: %v", ErrTokenise, name, r)}
			}
		}()
		iter, err := chroma.Coalesce(lexer).Tokenise(nil, source)
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %w", ErrTokenise, err)}
			return
		}
		done <- result{tokens: iter.Tokens()}
	}()

	timer := time.NewTimer(TokeniseTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.tokens, r.err
	case <-timer.C:
		stalled.Store(name, struct{}{})
		logging.Component(logging.ComponentCatalog).Warn("分词超时，改用纯文本",
			"language", name, "timeout", TokeniseTimeout)
		return plainTokens(source)
	}
}

func plainTokens(source string) ([]chroma.Token, error) {
	iter, err := chroma.Coalesce(lexers.Fallback).Tokenise(nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenise, err)
	}
	return iter.Tokens(), nil
}

// Palette 从主题中取出窗口绘制需要的几种颜色。
func Palette(style *chroma.Style) layout.Palette {
	bg := style.Get(chroma.Background)
	p := layout.Palette{
		Background: layout.RGB(255, 255, 255),
		Foreground: layout.RGB(0, 0, 0),
	}
	if bg.Background.IsSet() {
		p.Background = fromColour(bg.Background)
	}
	if bg.Colour.IsSet() {
		p.Foreground = fromColour(bg.Colour)
	}
	p.LineNumber = p.Foreground
	if ln := style.Get(chroma.LineNumbers); ln.Colour.IsSet() {
		p.LineNumber = fromColour(ln.Colour)
	}
	p.Highlight = p.Background
	if hl := style.Get(chroma.LineHighlight); hl.Background.IsSet() {
		p.Highlight = fromColour(hl.Background)
	}
	return p
}

func spanFor(style *chroma.Style, palette layout.Palette, tt chroma.TokenType, text string) layout.Span {
	entry := style.Get(tt)
	span := layout.Span{
		Text:      text,
		Color:     palette.Foreground,
		Bold:      entry.Bold == chroma.Yes,
		Italic:    entry.Italic == chroma.Yes,
		Underline: entry.Underline == chroma.Yes,
	}
	if entry.Colour.IsSet() {
		span.Color = fromColour(entry.Colour)
	}
	if entry.Background.IsSet() {
		if bg := fromColour(entry.Background); bg != palette.Background {
			span.Background = &bg
		}
	}
	return span
}

// expandTabs 把制表符展开到下一个 tabWidth 的整数倍列，返回展开后的文本与新的列号。
func expandTabs(text string, col, tabWidth int) (string, int) {
	if !strings.ContainsRune(text, '\t') {
		return text, col + utf8.RuneCountInString(text)
	}
	var b strings.Builder
	for _, r := range text {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String(), col
}

func fromColour(c chroma.Colour) layout.Color {
	return layout.RGB(int(c.Red()), int(c.Green()), int(c.Blue()))
}
