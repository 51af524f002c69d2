package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("SILICATE_TEST_THEME", "Monokai")
	path := writeFile(t, "config.yaml", `
language: go
theme: ${SILICATE_TEST_THEME}
font: "Go Mono=20; Noto Sans CJK SC"
line_numbers: false
shadow_blur_radius: 0
pad_horiz: 10
highlight_lines: "1;3-4"
grayscale: 2
`)
	f, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, f.Language)
	assert.Equal(t, "go", *f.Language)
	assert.Equal(t, "Monokai", *f.Theme)
	assert.False(t, *f.LineNumbers)
	assert.Equal(t, 0.0, *f.ShadowBlurRadius)
	assert.Equal(t, 10, *f.PadHoriz)
	assert.Nil(t, f.PadVert)
	assert.Nil(t, f.WindowControls)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "config.yaml", "colour: red\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "")
	f, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, f.Language)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "显式指定的文件不存在应报错")

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	f, err := Load("")
	require.NoError(t, err, "默认配置文件不存在不算错误")
	assert.Nil(t, f.Theme)
}

func TestLoadDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "silicate"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "silicate", "config.yaml"), []byte("theme: GitHub\n"), 0o644))

	assert.Equal(t, filepath.Join(dir, "silicate", "config.yaml"), DefaultPath())
	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "GitHub", *f.Theme)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SILICATE_THEME", "Nord")
	t.Setenv("SILICATE_LINE_NUMBERS", "no")
	t.Setenv("SILICATE_PAD_VERT", "12")
	t.Setenv("SILICATE_LINE_PAD", "1.5")
	secret := writeFile(t, "title", "  from file\n")
	t.Setenv("SILICATE_WINDOW_TITLE_FILE", secret)

	f, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "Nord", *f.Theme)
	assert.False(t, *f.LineNumbers)
	assert.Equal(t, 12, *f.PadVert)
	assert.Equal(t, 1.5, *f.LinePad)
	assert.Equal(t, "from file", *f.WindowTitle)
	assert.Nil(t, f.Language)
}

func TestFromEnvInvalidValue(t *testing.T) {
	t.Setenv("SILICATE_PAD_HORIZ", "wide")
	_, err := FromEnv()
	require.Error(t, err)

	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, "SILICATE_PAD_HORIZ", envErr.Key)
	assert.Equal(t, "wide", envErr.Value)
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	t.Setenv("SILICATE_PAD_HORIZ", "")
	t.Setenv("SILICATE_ROUND_CORNER", "maybe")
	_, err = FromEnv()
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, "SILICATE_ROUND_CORNER", envErr.Key)
}

func TestFromEnvBoolSpellings(t *testing.T) {
	for val, want := range map[string]bool{"Yes": true, "t": true, "1": true, "NO": false, "f": false, " 0 ": false} {
		t.Setenv("SILICATE_WINDOW_CONTROLS", val)
		f, err := FromEnv()
		require.NoError(t, err, val)
		require.NotNil(t, f.WindowControls, val)
		assert.Equal(t, want, *f.WindowControls, val)
	}
}

func TestMergePrefersOverride(t *testing.T) {
	goLang, rust := "go", "rust"
	pad := 5
	base := File{Language: &goLang, PadHoriz: &pad}
	over := File{Language: &rust}

	merged := Merge(base, over)
	assert.Equal(t, "rust", *merged.Language)
	assert.Equal(t, 5, *merged.PadHoriz)
	assert.Equal(t, "go", *base.Language, "Merge 不应修改输入")
}

func TestResolveEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, "config.yaml", "theme: GitHub\nlanguage: go\n")
	t.Setenv("SILICATE_THEME", "Nord")

	f, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "Nord", *f.Theme)
	assert.Equal(t, "go", *f.Language)
}

func TestResolveRejectsMalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SILICATE_THEME=\"Nord\nSILICATE_PAD_VERT=1\n"), 0o644))

	_, err := Resolve("")
	assert.Error(t, err, "格式错误的 .env 不应被忽略")
}

func TestResolveReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	// 先经 t.Setenv 登记恢复再删除，godotenv 只填充不存在的变量
	t.Setenv("SILICATE_PAD_VERT", "")
	require.NoError(t, os.Unsetenv("SILICATE_PAD_VERT"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SILICATE_PAD_VERT=7\n"), 0o644))

	f, err := Resolve("")
	require.NoError(t, err)
	require.NotNil(t, f.PadVert)
	assert.Equal(t, 7, *f.PadVert)
}

func TestOptions(t *testing.T) {
	path := writeFile(t, "config.yaml", `
language: go
font: "Go Mono=20; Noto Sans CJK SC"
line_numbers: false
shadow_offset_y: 4
highlight_lines: "3-4;1"
grayscale: 2
`)
	f, err := Load(path)
	require.NoError(t, err)

	o, err := f.Options()
	require.NoError(t, err)
	assert.Equal(t, "go", o.Language)
	assert.Empty(t, o.Theme)
	require.Len(t, o.Fonts, 2)
	assert.Equal(t, "Go Mono", o.Fonts[0].Name)
	assert.Equal(t, 20.0, o.Fonts[0].Size)
	assert.Equal(t, 20.0, o.Fonts[1].Size)
	require.NotNil(t, o.ShowLineNumbers)
	assert.False(t, *o.ShowLineNumbers)
	assert.Nil(t, o.ShowWindowControls)
	assert.Equal(t, 4, o.ShadowOffsetY)
	assert.Equal(t, []int{1, 3, 4}, o.HighlightLines)
	assert.Equal(t, 2, o.Grayscale)
}

func TestOptionsRejectsBadDSL(t *testing.T) {
	bad := "5-1"
	_, err := File{HighlightLines: &bad}.Options()
	assert.Error(t, err)
}
