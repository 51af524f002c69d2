package logging

// 日志 component 属性取值
const (
	ComponentCLI      = "cli"
	ComponentConfig   = "config"
	ComponentCatalog  = "catalog"
	ComponentEngine   = "engine"
	ComponentFonts    = "fonts"
	ComponentRenderer = "renderer"
	ComponentOutput   = "output"
)
