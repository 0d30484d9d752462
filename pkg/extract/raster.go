package extract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Rasterizer renders document pages to image files on disk. It is an
// external collaborator of the pipeline; failures here abort the document.
type Rasterizer interface {
	PageCount(data []byte) (int, error)
	// Render writes page (0-based) as a PNG under dir and returns its path.
	Render(data []byte, page int, dir string) (string, error)
}

// RasterizerFor picks an implementation by upload extension.
func RasterizerFor(name string) (Rasterizer, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return &PopplerRasterizer{DPI: 300}, nil
	case ".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff", ".bmp":
		return imagePages{ext: strings.ToLower(filepath.Ext(name))}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// PopplerRasterizer shells out to the poppler utilities (pdfinfo, pdftoppm).
type PopplerRasterizer struct {
	DPI int
}

var pdfPagesRE = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

func (r *PopplerRasterizer) PageCount(data []byte) (int, error) {
	tmp, err := writeTemp(data, "*.pdf")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp)
	out, err := exec.Command("pdfinfo", tmp).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	m := pdfPagesRE.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("pdfinfo: no page count in output")
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n < 1 {
		return 0, ErrNoPages
	}
	return n, nil
}

func (r *PopplerRasterizer) Render(data []byte, page int, dir string) (string, error) {
	tmp, err := writeTemp(data, "*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)
	dpi := r.DPI
	if dpi <= 0 {
		dpi = 300
	}
	prefix := filepath.Join(dir, fmt.Sprintf("page-%d", page))
	pageArg := strconv.Itoa(page + 1)
	cmd := exec.Command("pdftoppm", "-png", "-r", strconv.Itoa(dpi),
		"-f", pageArg, "-l", pageArg, tmp, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %v: %s", page+1, err, strings.TrimSpace(string(out)))
	}
	// pdftoppm zero-pads the page suffix depending on total page count.
	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm page %d: no output produced", page+1)
	}
	return matches[0], nil
}

// imagePages treats a raster upload (a photographed or pre-rendered page)
// as a one-page document.
type imagePages struct {
	ext string
}

func (imagePages) PageCount([]byte) (int, error) { return 1, nil }

func (p imagePages) Render(data []byte, page int, dir string) (string, error) {
	if page != 0 {
		return "", fmt.Errorf("image document has a single page, requested %d", page)
	}
	f, err := os.CreateTemp(dir, "page-0-*"+p.ext)
	if err != nil {
		return "", fmt.Errorf("temp page: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write page: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func writeTemp(data []byte, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
