package export

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/raylu/git-whence/internal/blame"
	"github.com/raylu/git-whence/internal/git"
)

// Format represents the desired export format.
type Format string

const (
	// FormatHTML emits an HTML document for the view.
	FormatHTML Format = "html"
	// FormatMarkdown emits a Markdown code block.
	FormatMarkdown Format = "markdown"
	// FormatANSI emits an ANSI-colored string.
	FormatANSI Format = "ansi"
)

// Options control how a view is exported.
type Options struct {
	// Title will be shown in HTML/Markdown outputs when provided.
	Title string
	// ShowLineNumbers determines whether line numbers are included.
	ShowLineNumbers bool
}

// Render returns the attribution view in the requested format. Dates are
// absolute rather than relative so exports stay meaningful later.
func Render(view *blame.View, format Format, opts Options) (string, error) {
	if view == nil {
		return "", errors.New("view is nil")
	}

	switch strings.ToLower(string(format)) {
	case string(FormatHTML):
		return renderHTML(view, opts), nil
	case string(FormatMarkdown), "md":
		return renderMarkdown(view, opts), nil
	case string(FormatANSI), "text":
		return renderANSI(view, opts), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func defaultTitle(view *blame.View) string {
	return fmt.Sprintf("%s @ %s", view.Path, git.Abbrev(view.Revision))
}

func renderHTML(view *blame.View, opts Options) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	b.WriteString("<style>body{background:#0f111a;color:#e5e7eb;font-family:Menlo,Consolas,monospace;}" +
		"pre{white-space:pre-wrap;word-wrap:break-word;}" +
		".hash{color:#d7af5f;}" +
		".boundary{color:#6b7280;}" +
		".author{color:#87afaf;}" +
		".when{color:#8787af;}" +
		".lineno{color:#9ca3af;}" +
		".text{color:#cbd5e1;}" +
		"h1{font-size:18px;margin-bottom:12px;}" +
		"</style></head><body>")

	title := opts.Title
	if title == "" {
		title = defaultTitle(view)
	}
	b.WriteString(fmt.Sprintf("<h1>%s</h1>\n<pre>", html.EscapeString(title)))

	for _, line := range view.Lines {
		hashClass := "hash"
		if line.Boundary {
			hashClass = "hash boundary"
		}
		fmt.Fprintf(&b, "<div><span class=\"%s\">%-8s</span> <span class=\"author\">%-12.12s</span> <span class=\"when\">%s</span>",
			hashClass, line.DisplayHash(), line.Author, line.When.Format("2006-01-02"))
		if opts.ShowLineNumbers {
			fmt.Fprintf(&b, " <span class=\"lineno\">%5d</span>", line.Number)
		}
		fmt.Fprintf(&b, " <span class=\"text\">%s</span></div>\n", html.EscapeString(line.Text))
	}

	b.WriteString("</pre></body></html>")
	return b.String()
}

func renderMarkdown(view *blame.View, opts Options) string {
	var b strings.Builder

	if opts.Title != "" {
		b.WriteString("# ")
		b.WriteString(opts.Title)
		b.WriteString("\n\n")
	}

	b.WriteString("```text\n")
	for _, line := range view.Lines {
		if opts.ShowLineNumbers {
			fmt.Fprintf(&b, "%-8s %-12.12s %s %5d %s\n",
				line.DisplayHash(), line.Author, line.When.Format("2006-01-02"), line.Number, line.Text)
		} else {
			fmt.Fprintf(&b, "%-8s %-12.12s %s %s\n",
				line.DisplayHash(), line.Author, line.When.Format("2006-01-02"), line.Text)
		}
	}
	b.WriteString("```\n")
	return b.String()
}

func renderANSI(view *blame.View, opts Options) string {
	const (
		reset  = "\u001b[0m"
		yellow = "\u001b[33m"
		cyan   = "\u001b[36m"
		blue   = "\u001b[34m"
		gray   = "\u001b[90m"
	)

	var b strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", opts.Title)
	}

	for _, line := range view.Lines {
		hashColor := yellow
		if line.Boundary {
			hashColor = gray
		}
		fmt.Fprintf(&b, "%s%-8s%s %s%-12.12s%s %s%s%s",
			hashColor, line.DisplayHash(), reset,
			cyan, line.Author, reset,
			blue, line.When.Format("2006-01-02"), reset)
		if opts.ShowLineNumbers {
			fmt.Fprintf(&b, " %s%5d%s", gray, line.Number, reset)
		}
		fmt.Fprintf(&b, " %s\n", line.Text)
	}
	return b.String()
}
