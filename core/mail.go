package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync/atomic"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/YounesFetouaki/edu-path/fs"
)

const (
	emailTemplatesDir = "templates/email"
	textExt           = ".txt"
	htmlExt           = ".gohtml"
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	// EmailMessage is either a plain message (BodyStr) or a templated one (TemplateName).
	// Render fills TextContent and HTMLContent.
	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string
		Attachments []Attachment

		TemplateName string // file name without extension
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is the dot value of every email template.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// executor is satisfied by both text and html templates.
type executor interface {
	Execute(w io.Writer, data interface{}) error
}

type mailTemplates struct {
	baseURL string
	byName  map[string]map[string]executor // name -> ext -> template
}

var loadedTemplates atomic.Pointer[mailTemplates]

func (mt *mailTemplates) lookup(name, ext string) executor {
	if mt == nil {
		return nil
	}
	return mt.byName[name][ext]
}

func (m *EmailMessage) execute(mt *mailTemplates, ext string) (string, error) {
	tmpl := mt.lookup(m.TemplateName, ext)
	if tmpl == nil {
		return "", nil
	}
	var buf strings.Builder
	err := tmpl.Execute(&buf, ContextData{FrontendBaseURL: mt.baseURL, Data: m.TemplateData})
	if err != nil {
		return "", errors.Wrapf(err, "rendering %s%s", m.TemplateName, ext)
	}
	return buf.String(), nil
}

// Render builds the message bodies. BodyStr takes precedence over the text template.
// A template that was never loaded leaves the matching body empty.
func (m *EmailMessage) Render() (err error) {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	mt := loadedTemplates.Load()
	if m.BodyStr == "" {
		if m.TextContent, err = m.execute(mt, textExt); err != nil {
			return err
		}
	}
	m.HTMLContent, err = m.execute(mt, htmlExt)
	return err
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return m.TextContent != "" || m.HTMLContent != "" }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

func parseTemplate(ext, base, file string, strict bool) (executor, error) {
	if ext == textExt {
		t, err := texttmpl.ParseFS(appfs.FS, base, file)
		if err == nil && strict {
			t = t.Option("missingkey=error")
		}
		return t, err
	}
	t, err := htmltmpl.ParseFS(appfs.FS, base, file)
	if err == nil && strict {
		t = t.Option("missingkey=error")
	}
	return t, err
}

// ParseEmailTemplates loads the embedded email templates, each one wrapped by `_base.<ext>`.
// Templates failing to parse are logged and skipped.
func ParseEmailTemplates(conf *Config, logger Logger) {
	mt := &mailTemplates{
		baseURL: conf.FrontendBaseURL,
		byName:  make(map[string]map[string]executor),
	}
	strict := conf.Debug || conf.TestMode

	files, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
	}
	for _, file := range files {
		ext := path.Ext(file)
		name := strings.TrimSuffix(path.Base(file), ext)
		if strings.HasPrefix(name, "_") || (ext != textExt && ext != htmlExt) {
			continue
		}
		tmpl, err := parseTemplate(ext, path.Join(emailTemplatesDir, "_base"+ext), file, strict)
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", file, err), err)
			continue
		}
		if mt.byName[name] == nil {
			mt.byName[name] = make(map[string]executor, 2)
		}
		mt.byName[name][ext] = tmpl
	}

	loadedTemplates.Store(mt)
}
