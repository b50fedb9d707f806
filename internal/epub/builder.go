package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// Builder assembles a minimal EPUB 3 container. It exists for round-trip
// testing and fixture generation; the produced archive is intentionally
// spartan (no NCX, no CSS, no cover).
type Builder struct {
	Title      string
	Author     string
	Language   string
	Identifier string
	chapters   []builderChapter
}

type builderChapter struct {
	href string
	body string
}

// AddChapter appends one spine document whose body HTML is written verbatim.
func (b *Builder) AddChapter(href, bodyHTML string) {
	b.chapters = append(b.chapters, builderChapter{href: href, body: bodyHTML})
}

// Build produces the EPUB archive bytes.
func (b *Builder) Build() ([]byte, error) {
	if len(b.chapters) == 0 {
		return nil, fmt.Errorf("epub must have at least one chapter")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be first and stored uncompressed.
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, err
	}
	if _, err := mw.Write([]byte("application/epub+zip")); err != nil {
		return nil, err
	}

	container := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	if err := writeZipFile(zw, containerPath, container); err != nil {
		return nil, err
	}

	var manifest, spine strings.Builder
	for i, ch := range b.chapters {
		id := fmt.Sprintf("item%d", i+1)
		fmt.Fprintf(&manifest, `    <item id="%s" href="%s" media-type="application/xhtml+xml"/>`+"\n", id, escapeXML(ch.href))
		fmt.Fprintf(&spine, `    <itemref idref="%s"/>`+"\n", id)
	}

	opf := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="BookId">%s</dc:identifier>
    <dc:title>%s</dc:title>
    <dc:creator>%s</dc:creator>
    <dc:language>%s</dc:language>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`,
		escapeXML(b.Identifier),
		escapeXML(b.Title),
		escapeXML(b.Author),
		escapeXML(b.Language),
		manifest.String(),
		spine.String(),
	)
	if err := writeZipFile(zw, "OEBPS/content.opf", opf); err != nil {
		return nil, err
	}

	for _, ch := range b.chapters {
		doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<body>
%s
</body>
</html>`, ch.body)
		if err := writeZipFile(zw, "OEBPS/"+ch.href, doc); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeZipFile(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(content))
	return err
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
