package email

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/skip2/go-qrcode"

	"studentevents/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

const qrSize = 256

var textFuncs = texttemplate.FuncMap{
	"date": formatDate,
}

var htmlFuncs = htmltemplate.FuncMap{
	"date":   formatDate,
	"qrcode": qrDataURI,
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// templateRenderer implements domain.EmailTemplateRenderer using embedded template files.
type templateRenderer struct{}

// NewTemplateRenderer returns an EmailTemplateRenderer that loads templates from the embedded templates folder.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{}
}

// Render executes the named template (e.g. "welcome") with data and returns subject, html, and text bodies.
func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	subject, err = renderText(templateName+"_subject.txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err = renderHTML(templateName+".html", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	textBody, err = renderText(templateName+".txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(subject), htmlBody, textBody, nil
}

func renderText(name string, data any) (string, error) {
	t, err := texttemplate.New(name).Funcs(textFuncs).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(name string, data any) (string, error) {
	t, err := htmltemplate.New(name).Funcs(htmlFuncs).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// qrDataURI encodes the reservation code as an inline PNG usable in an <img> tag.
func qrDataURI(code int64) (htmltemplate.URL, error) {
	png, err := qrcode.Encode(strconv.FormatInt(code, 10), qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return htmltemplate.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
