package codegen

import (
	"text/template"
)

type templateGroup struct {
	coreHeader *template.Template
	openocd    *template.Template
}

func createTemplates() *templateGroup {
	coreHeader := template.New("core_header")
	coreHeader = template.Must(coreHeader.Parse(coreHeaderTemplateText))

	openocd := template.New("openocd")
	openocd = template.Must(openocd.Parse(openocdTemplateText))

	return &templateGroup{coreHeader: coreHeader, openocd: openocd}
}

var templates = createTemplates()

type headerEntry struct {
	Register string
	Address  uint64
	Value    uint32
}

type headerData struct {
	Entries []headerEntry
	FoscKHz uint32
}

const coreHeaderTemplateText = `{{range .Entries -}}
pub const ADDRESS_{{.Register}}: u32 = 0x{{printf "%08X" .Address}};
pub const VALUE_{{.Register}}: u32 = 0x{{printf "%08X" .Value}};
{{end -}}
pub const FOSC_KHZ_VALUE: u32 = {{.FoscKHz}};
`

type openocdData struct {
	Interface string
	Transport string
	Target    string
}

const openocdTemplateText = `source [find interface/{{.Interface}}]
transport select {{.Transport}}
source [find target/{{.Target}}]
`
