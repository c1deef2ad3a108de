// Package export renders minutes of meeting as Word documents.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/minutesapp/minutes-server/internal/util"
)

const (
	fontName  = "Times New Roman"
	fontSize  = 12
	titleSize = 16
	headSize  = 14

	dateLayout = "2006-01-02 15:04 MST"

	// ContentType is the media type of the rendered document.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MoMDocument is everything printed in an exported MoM.
type MoMDocument struct {
	Title           string
	TranscriptionID int64
	Author          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Summary         string
	Transcript      string
}

// Filename returns the attachment name for the document. The author is
// included when it yields a non-empty slug.
func (d *MoMDocument) Filename() string {
	if author := util.Slug(d.Author); author != "" {
		return fmt.Sprintf("mom-%d-%s.docx", d.TranscriptionID, author)
	}
	return fmt.Sprintf("mom-%d.docx", d.TranscriptionID)
}

// WriteMoM renders d as .docx into w.
func WriteMoM(w io.Writer, d *MoMDocument) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	title := d.Title
	if title == "" {
		title = fmt.Sprintf("Minutes of Meeting #%d", d.TranscriptionID)
	}
	addRun(doc.AddParagraph(""), title, true, titleSize)

	meta := doc.AddParagraph("")
	if d.Author != "" {
		addRun(meta, "Owner: "+d.Author+"   ", false, fontSize)
	}
	addRun(meta, "Created: "+d.CreatedAt.UTC().Format(dateLayout), false, fontSize)
	if !d.UpdatedAt.IsZero() && !d.UpdatedAt.Equal(d.CreatedAt) {
		addRun(meta, "   Updated: "+d.UpdatedAt.UTC().Format(dateLayout), false, fontSize)
	}

	doc.AddParagraph("")
	addRun(doc.AddParagraph(""), "Summary", true, headSize)
	for _, para := range paragraphs(d.Summary) {
		addRun(doc.AddParagraph(""), para, false, fontSize)
	}

	if strings.TrimSpace(d.Transcript) != "" {
		doc.AddParagraph("")
		addRun(doc.AddParagraph(""), "Transcript", true, headSize)
		for _, para := range paragraphs(d.Transcript) {
			addRun(doc.AddParagraph(""), para, false, fontSize)
		}
	}

	return save(doc, w)
}

func save(doc *docx.RootDoc, w io.Writer) error {
	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

// paragraphs splits text on blank lines, then on single newlines, dropping
// empty pieces.
func paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
