package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"
)

//go:embed report.tmpl
var textTemplate string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"inc":   func(i int) int { return i + 1 },
	"yesno": func(v bool) string {
		if v {
			return "Yes"
		}
		return "No"
	},
}).Parse(textTemplate))

// WriteText renders the plain text report.
func WriteText(w io.Writer, r Report) error {
	if err := reportTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName suggests a report file name for the applicant.
func FileName(fullName, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "txt"
	}

	name := unsafeFileChars.ReplaceAllString(strings.Join(strings.Fields(fullName), "_"), "")
	if name == "" {
		return "Assessment_Report." + ext
	}
	return "Assessment_" + name + "." + ext
}
