package convert

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// emailContent is the extracted representation of a message, ready to be
// synthesized into an HTML document.
type emailContent struct {
	From    string
	To      string
	Subject string
	Date    string

	// BodyHTML is the raw HTML body when present; it is sanitized before
	// being embedded. BodyText is the plain-text fallback.
	BodyHTML string
	BodyText string
}

var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Subject}}</title>
</head>
<body>
<div style="font-family: Arial, sans-serif; border-bottom: 1px solid #ccc; padding-bottom: 10px; margin-bottom: 20px;">
<p><strong>From:</strong> {{.From}}</p>
<p><strong>To:</strong> {{.To}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
</div>
{{.Body}}
</body>
</html>
`))

// bodyPolicy sanitizes untrusted HTML message bodies before they reach the
// browser. Formatting elements survive, scripts and event handlers do not.
var bodyPolicy = bluemonday.UGCPolicy()

type emailPage struct {
	From    string
	To      string
	Subject string
	Date    string
	Body    template.HTML
}

// writeEmailHTML synthesizes a full HTML document for the message into path.
// Header text is escaped by the template engine; an HTML body is sanitized
// and embedded as-is, a plain-text body is escaped inside <pre>.
func writeEmailHTML(content emailContent, path string) error {
	page := emailPage{
		From:    content.From,
		To:      content.To,
		Subject: content.Subject,
		Date:    content.Date,
	}

	if content.BodyHTML != "" {
		if page.Subject == "" {
			page.Subject = htmlTitle(content.BodyHTML)
		}
		page.Body = template.HTML(bodyPolicy.Sanitize(content.BodyHTML))
	} else {
		var pre bytes.Buffer
		template.HTMLEscape(&pre, []byte(content.BodyText))
		page.Body = template.HTML("<pre>" + pre.String() + "</pre>")
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("render email template: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// renderEmailToPDF writes the synthesized HTML to a scratch file next to dst,
// delegates to the html renderer, and renames the result into place. The
// scratch files are removed regardless of outcome.
func renderEmailToPDF(ctx context.Context, r Renderer, content emailContent, dst string) error {
	dir := filepath.Dir(dst)
	base := stem(dst)

	scratch := filepath.Join(dir, base+"_temp.html")
	if err := writeEmailHTML(content, scratch); err != nil {
		return err
	}
	defer os.Remove(scratch)

	tmpPDF := filepath.Join(dir, base+"_temp.pdf")
	defer os.Remove(tmpPDF)

	if err := r.Render(ctx, scratch, tmpPDF, ""); err != nil {
		return err
	}
	return os.Rename(tmpPDF, dst)
}

// htmlTitle extracts the <title> text from an HTML body, used when a message
// carries no subject.
func htmlTitle(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				return strings.TrimSpace(n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
