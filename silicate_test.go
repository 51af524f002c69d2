package silicate

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quick 返回渲染较快的选项：无投影模糊、无留白。
func quick() Options {
	return Options{
		ShadowBlurRadius: Float(0),
		PadHoriz:         Int(0),
		PadVert:          Int(0),
	}
}

func TestEveryListedLanguageIsAccepted(t *testing.T) {
	langs, err := ListLanguages()
	require.NoError(t, err)
	require.NotEmpty(t, langs)

	for _, l := range langs {
		opts := quick()
		opts.Language = l.Name
		done := make(chan error, 1)
		go func() {
			_, err := Generate("print(1)", opts)
			done <- err
		}()
		var err error
		select {
		case err = <-done:
		case <-time.After(20 * time.Second):
			t.Fatalf("语言 %q 渲染没有结束", l.Name)
		}
		if errors.Is(err, ErrUnknownLanguage) {
			t.Errorf("列出的语言 %q 被拒绝: %v", l.Name, err)
		} else if err != nil {
			assert.ErrorIs(t, err, ErrEngine, "语言 %q", l.Name)
		}
	}
}

func TestEveryListedThemeIsAccepted(t *testing.T) {
	themes, err := ListThemes()
	require.NoError(t, err)
	require.NotEmpty(t, themes)

	for _, th := range themes {
		opts := quick()
		opts.Theme = th.Name
		_, err := Generate("print(1)", opts)
		assert.NotErrorIs(t, err, ErrUnknownTheme, "主题 %q", th.Name)
		assert.NoError(t, err, "主题 %q", th.Name)
	}
}

func TestToFileMatchesGenerate(t *testing.T) {
	dir := t.TempDir()
	opts := quick()
	opts.Language = "go"
	opts.HighlightLines = []int{2}
	source := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"

	for _, name := range []string{"out.png", "out.jpg", "out.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, ToFile(source, opts, path))
		written, err := os.ReadFile(path)
		require.NoError(t, err)

		o := opts
		o.Format = filepath.Ext(name)
		generated, err := Generate(source, o)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(written, generated), "%s 的文件内容与 Generate 不一致", name)
	}
}

func TestUnknownLanguage(t *testing.T) {
	langs, err := ListLanguages()
	require.NoError(t, err)
	for _, l := range langs {
		require.NotEqual(t, "not-a-real-language", strings.ToLower(l.Name))
	}

	for _, name := range []string{"not-a-real-language", "zzqqxx"} {
		_, err := Generate("print(1)", Options{Language: name})
		assert.ErrorIs(t, err, ErrUnknownLanguage)
		assert.NotErrorIs(t, err, ErrEngine)
	}
}

func TestUnknownTheme(t *testing.T) {
	_, err := Generate("print(1)", Options{Theme: "no-such-theme"})
	assert.ErrorIs(t, err, ErrUnknownTheme)
	assert.NotErrorIs(t, err, ErrEngine)
}

func TestListingsAreDeterministic(t *testing.T) {
	l1, err := ListLanguages()
	require.NoError(t, err)
	l2, err := ListLanguages()
	require.NoError(t, err)
	assert.Equal(t, l1, l2)

	t1, err := ListThemes()
	require.NoError(t, err)
	t2, err := ListThemes()
	require.NoError(t, err)
	assert.Equal(t, t1, t2)

	// 独立构建的引擎结果相同
	l3, err := NewEngine(EngineOptions{}).ListLanguages()
	require.NoError(t, err)
	assert.Equal(t, l1, l3)

	// 修改返回值不影响之后的调用
	l1[0].Name = "mutated"
	l4, err := ListLanguages()
	require.NoError(t, err)
	assert.Equal(t, l2, l4)
}

func TestListingsAreSorted(t *testing.T) {
	langs, err := ListLanguages()
	require.NoError(t, err)
	for i := 1; i < len(langs); i++ {
		assert.LessOrEqual(t, strings.ToLower(langs[i-1].Name), strings.ToLower(langs[i].Name))
	}
	themes, err := ListThemes()
	require.NoError(t, err)
	var names []string
	for _, th := range themes {
		names = append(names, th.Name)
		assert.True(t, strings.HasPrefix(th.Background, "#") && len(th.Background) == 7, th.Background)
	}
	assert.Contains(t, names, "default")
	assert.Contains(t, names, "dracula")
}

func TestConcreteScenario(t *testing.T) {
	data, err := Generate("print(1)", Options{Language: "python", Theme: "default"})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), 2*DefaultPadHoriz)
	assert.Greater(t, b.Dy(), 2*DefaultPadVert)

	_, err = Generate("print(1)", Options{Language: "not-a-real-language", Theme: "default"})
	assert.ErrorIs(t, err, ErrUnknownLanguage)

	err = ToFile("print(1)", Options{Language: "python", Theme: "default"}, "/nonexistent/dir/out.png")
	assert.ErrorIs(t, err, ErrIO)
}

func TestToFileFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := ToFile("print(1)", Options{Language: "not-a-real-language"}, path)
	require.ErrorIs(t, err, ErrUnknownLanguage)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "失败时目标文件应保持不变")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "不应残留临时文件")
}

func TestToFileDestinationIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken.png")
	require.NoError(t, os.Mkdir(target, 0o755))
	err := ToFile("print(1)", quick(), target)
	assert.ErrorIs(t, err, ErrIO)
}

func TestInvalidInput(t *testing.T) {
	cases := map[string]Options{
		"bad background":  {Background: "blue"},
		"bad shadow":      {ShadowColor: "#12"},
		"negative pad":    {PadHoriz: Int(-1)},
		"negative blur":   {ShadowBlurRadius: Float(-3)},
		"zero font size":  {Fonts: []FontSpec{{Name: "Go Mono", Size: 0}}},
		"empty font name": {Fonts: []FontSpec{{Name: " ", Size: 12}}},
		"grayscale 3":     {Grayscale: 3},
		"unknown format":  {Format: "webp"},
		"huge pad":        {PadHoriz: Int(1 << 40)},
		"huge font size":  {Fonts: []FontSpec{{Name: "Go Mono", Size: 1e9}}},
		"huge blur":       {ShadowBlurRadius: Float(1e6)},
		"NaN blur":        {ShadowBlurRadius: Float(math.NaN())},
		"NaN line pad":    {LinePad: Float(math.NaN())},
		"Inf line pad":    {LinePad: Float(math.Inf(1))},
		"NaN font size":   {Fonts: []FontSpec{{Name: "Go Mono", Size: math.NaN()}}},
		"huge tab width":  {TabWidth: 1 << 20},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Generate("print(1)", opts)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := Generate("", Options{})
	assert.ErrorIs(t, err, ErrInvalidInput, "空源码")
	_, err = Generate("\xff\xfe", Options{})
	assert.ErrorIs(t, err, ErrInvalidInput, "非 UTF-8 源码")


	// 单项参数合法但画布过大
	_, err = Generate(strings.Repeat("x\n", 2000), quick())
	assert.ErrorIs(t, err, ErrInvalidInput, "过多的行")
	edge := quick()
	edge.PadHoriz = Int(MaxPadding)
	_, err = Generate("print(1)", edge)
	assert.NoError(t, err, "留白取上限仍应能渲染")

	err = ToFile("print(1)", Options{}, filepath.Join(t.TempDir(), "out.webp"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	err = ToFile("print(1)", Options{}, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVectorOutput(t *testing.T) {
	opts := quick()
	opts.Format = "pdf"
	data, err := Generate("print(1)", opts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	opts.Format = "svg"
	data, err = Generate("print(1)", opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestGrayscaleOutput(t *testing.T) {
	opts := quick()
	opts.Grayscale = 2
	data, err := Generate("print(1)\nx = 2\n", opts)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	levels := map[uint32]bool{}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			require.True(t, r == g && g == b, "像素 %d,%d 不是灰色", x, y)
			levels[r] = true
		}
	}
	assert.LessOrEqual(t, len(levels), 4, "2 位灰度最多 4 个灰阶")
	_, isGray := img.(*image.Gray)
	assert.True(t, isGray, "应写出 PNG 灰度类型, got %T", img)
}

func TestRenderAddsPadding(t *testing.T) {
	e := NewEngine(EngineOptions{})
	opts := quick()
	res, err := e.Layout("print(1)", opts)
	require.NoError(t, err)

	opts.PadHoriz = Int(30)
	opts.PadVert = Int(20)
	img, err := e.Render("print(1)", opts)
	require.NoError(t, err)
	assert.Equal(t, int(res.Width)+60, img.Bounds().Dx())
	assert.Equal(t, int(res.Height)+40, img.Bounds().Dy())
}

func TestConcurrentGenerate(t *testing.T) {
	opts := quick()
	want, err := Generate("print(1)", opts)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = Generate("print(1)", opts)
		}()
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, bytes.Equal(want, results[i]), "并发渲染结果应一致")
	}
}

func TestDefaultOptions(t *testing.T) {
	d := DefaultOptions()
	assert.Equal(t, DefaultLanguage, d.Language)
	assert.Equal(t, DefaultTheme, d.Theme)
	require.Len(t, d.Fonts, 1)
	assert.Equal(t, DefaultFontSize, d.Fonts[0].Size)
	assert.True(t, *d.ShowLineNumbers)
	assert.Equal(t, "png", d.Format)

	// 零值补齐后与默认值一致
	o := Options{}.withDefaults()
	assert.Equal(t, d.Language, o.Language)
	assert.Equal(t, *d.PadHoriz, *o.PadHoriz)
	assert.NoError(t, o.validate())

	// 显式的零值保留
	o = Options{PadHoriz: Int(0), ShowLineNumbers: Bool(false), HighlightLines: []int{3, 1, 3, -2}}.withDefaults()
	assert.Equal(t, 0, *o.PadHoriz)
	assert.False(t, *o.ShowLineNumbers)
	assert.Equal(t, []int{1, 3}, o.HighlightLines)
}

func TestDetectLanguage(t *testing.T) {
	e := Default()
	assert.Equal(t, "Go", e.DetectLanguage("main.go", ""))
	assert.Equal(t, "Python", e.DetectLanguage("script.py", ""))
	assert.Equal(t, "", e.DetectLanguage("", ""))
}
