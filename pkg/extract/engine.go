package extract

import (
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Engine converts a page image file into raw text. Implementations own their
// initialization lifecycle: Init is called once before the first page of a
// document and Close after the last, so a session can hold a single
// stateful worker for the whole document.
type Engine interface {
	Init() error
	Recognize(imagePath string) (string, error)
	Close() error
}

// statementWhitelist restricts recognition to alphanumerics and statement
// punctuation. Everything else is OCR noise for this document class.
const statementWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789$.,/- "

// TesseractEngine is the production Engine on a gosseract client. The client
// is created lazily on Init and reused across pages; it is not safe for
// concurrent use, which is why the pipeline keeps pages sequential.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine returns an uninitialized engine; the Tesseract worker
// is not spawned until Init.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

// Init spawns and configures the Tesseract worker. Calling it again on a
// live engine is a no-op.
func (e *TesseractEngine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return nil
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetWhitelist(statementWhitelist); err != nil {
		client.Close()
		return fmt.Errorf("tesseract whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return fmt.Errorf("tesseract psm: %w", err)
	}
	e.client = client
	return nil
}

// Recognize runs OCR over one page image.
func (e *TesseractEngine) Recognize(imagePath string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return "", fmt.Errorf("engine not initialized")
	}
	if err := e.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image %s: %w", imagePath, err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", imagePath, err)
	}
	return text, nil
}

// Close tears the worker down. The engine can be re-initialized afterwards.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
