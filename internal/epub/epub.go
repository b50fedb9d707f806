// Package epub reads EPUB containers: bibliographic metadata plus the
// spine-ordered XHTML content documents. It is the document source for the
// conversion pipeline; interpreting the content is someone else's job.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/antchfx/xmlquery"
)

const containerPath = "META-INF/container.xml"

// documentMediaTypes lists manifest media types treated as content documents.
var documentMediaTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
}

// Source is an opened EPUB: metadata and spine-ordered content items.
type Source struct {
	Title       string
	Author      string
	Language    string
	Identifiers []string
	Items       []Item
}

// Item is one spine content document.
type Item struct {
	ID   string
	Href string
	Data []byte
}

// Open reads an EPUB file from disk.
func Open(filename string) (*Source, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read epub: %w", err)
	}
	return Parse(data)
}

// Parse reads an EPUB from bytes: container.xml locates the OPF package,
// whose metadata, manifest, and spine drive everything else.
func Parse(data []byte) (*Source, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid epub archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := rootfilePath(files)
	if err != nil {
		return nil, err
	}
	opfData, err := readZipFile(files, opfPath)
	if err != nil {
		return nil, err
	}
	return parseOPF(files, opfPath, opfData)
}

// rootfilePath extracts the OPF package path from META-INF/container.xml.
func rootfilePath(files map[string]*zip.File) (string, error) {
	data, err := readZipFile(files, containerPath)
	if err != nil {
		return "", err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse container.xml: %w", err)
	}
	node := xmlquery.FindOne(doc, "//*[local-name()='rootfile']")
	if node == nil {
		return "", fmt.Errorf("container.xml has no rootfile element")
	}
	full := node.SelectAttr("full-path")
	if full == "" {
		return "", fmt.Errorf("rootfile element has no full-path attribute")
	}
	return full, nil
}

// parseOPF reads Dublin Core metadata and joins the manifest against the
// spine, preserving spine order.
func parseOPF(files map[string]*zip.File, opfPath string, opfData []byte) (*Source, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(opfData))
	if err != nil {
		return nil, fmt.Errorf("parse opf: %w", err)
	}

	src := &Source{
		Title:    dcText(doc, "title"),
		Author:   dcText(doc, "creator"),
		Language: dcText(doc, "language"),
	}
	for _, node := range xmlquery.Find(doc, "//*[local-name()='metadata']/*[local-name()='identifier']") {
		if text := strings.TrimSpace(node.InnerText()); text != "" {
			src.Identifiers = append(src.Identifiers, text)
		}
	}

	type manifestItem struct {
		href      string
		mediaType string
	}
	manifest := make(map[string]manifestItem)
	for _, node := range xmlquery.Find(doc, "//*[local-name()='manifest']/*[local-name()='item']") {
		id := node.SelectAttr("id")
		if id == "" {
			continue
		}
		manifest[id] = manifestItem{
			href:      node.SelectAttr("href"),
			mediaType: node.SelectAttr("media-type"),
		}
	}

	opfDir := path.Dir(opfPath)
	for _, node := range xmlquery.Find(doc, "//*[local-name()='spine']/*[local-name()='itemref']") {
		idref := node.SelectAttr("idref")
		item, ok := manifest[idref]
		if !ok || !documentMediaTypes[item.mediaType] {
			continue
		}
		href := resolveHref(opfDir, item.href)
		data, err := readZipFile(files, href)
		if err != nil {
			return nil, fmt.Errorf("spine item %s: %w", idref, err)
		}
		src.Items = append(src.Items, Item{ID: idref, Href: href, Data: data})
	}

	return src, nil
}

func dcText(doc *xmlquery.Node, local string) string {
	node := xmlquery.FindOne(doc, "//*[local-name()='metadata']/*[local-name()='"+local+"']")
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}

// resolveHref joins a manifest href against the OPF directory and drops any
// fragment.
func resolveHref(opfDir, href string) string {
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		href = href[:idx]
	}
	if opfDir == "." || opfDir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(opfDir, href))
}

func readZipFile(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("missing file in archive: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
