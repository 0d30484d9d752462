package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeEngine replays canned page texts in order.
type fakeEngine struct {
	pages   []string
	next    int
	initErr error
	recErr  error
	closed  bool
}

func (e *fakeEngine) Init() error { return e.initErr }

func (e *fakeEngine) Recognize(string) (string, error) {
	if e.recErr != nil {
		return "", e.recErr
	}
	if e.next >= len(e.pages) {
		return "", nil
	}
	t := e.pages[e.next]
	e.next++
	return t, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

// fakeRaster produces placeholder page files; the texts come from the engine.
type fakeRaster struct {
	pages     int
	renderErr error
}

func (r *fakeRaster) PageCount([]byte) (int, error) { return r.pages, nil }

func (r *fakeRaster) Render(_ []byte, page int, dir string) (string, error) {
	if r.renderErr != nil {
		return "", r.renderErr
	}
	p := filepath.Join(dir, fmt.Sprintf("page-%d.png", page))
	return p, os.WriteFile(p, []byte("not an image"), 0o644)
}

type memStore struct {
	seen map[string]bool
	txs  []Transaction
}

func newMemStore() *memStore { return &memStore{seen: map[string]bool{}} }

func (s *memStore) SeenHash(h string) (bool, error) { return s.seen[h], nil }

func (s *memStore) Existing() ([]Transaction, error) { return s.txs, nil }

func (s *memStore) Add(txs []Transaction) error {
	s.txs = append(s.txs, txs...)
	return nil
}

func newTestPipeline(store *memStore, engine Engine, raster Rasterizer) *Pipeline {
	p := NewPipeline(DefaultConfig(), engine, store, store)
	p.SetRasterizer(raster)
	p.now = func() time.Time { return time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

const samplePage = "ACME BANK\n" +
	"Statement Period: 12/01/2024 to 01/15/2025\n" +
	"Account ending in 4421\n" +
	"12/20 WAL-MART #1234 PURCHASE 45.00\n" +
	"01/05 PAYROLL DEPOSIT ACME CORP 1,500.00\n" +
	"total garbage line that parses to nothing\n" +
	"New Balance: $345.67\n"

func TestProcessDocumentEndToEnd(t *testing.T) {
	store := newMemStore()
	engine := &fakeEngine{pages: []string{samplePage}}
	p := newTestPipeline(store, engine, &fakeRaster{pages: 1})

	var calls [][2]int
	res, err := p.ProcessDocument([]byte("statement-bytes"), "stmt.pdf", func(cur, total int) {
		calls = append(calls, [2]int{cur, total})
	})
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if res.Duplicate {
		t.Fatal("first upload flagged duplicate")
	}
	if res.Period == nil || res.Period.Start.Year() != 2024 || res.Period.End.Year() != 2025 {
		t.Fatalf("period = %+v", res.Period)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3 (two rows + summary): %+v", len(res.Transactions), res.Transactions)
	}
	if len(calls) != 1 || calls[0] != [2]int{1, 1} {
		t.Fatalf("progress calls = %v", calls)
	}
	if !engine.closed {
		t.Fatal("engine not torn down after document")
	}

	byDesc := map[string]Transaction{}
	for _, x := range res.Transactions {
		byDesc[x.Description] = x
	}

	wm := byDesc["WAL-MART #1234 PURCHASE"]
	// Year inference: December rows in a Dec..Jan statement belong to 2024.
	if !wm.Date.Equal(time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("walmart date = %s", wm.Date)
	}
	if wm.Type != TxExpense || !wm.Amount.Equal(decimal.RequireFromString("-45.00")) {
		t.Fatalf("walmart sign convention: type=%s amount=%s", wm.Type, wm.Amount)
	}
	if wm.Category != "Groceries" {
		t.Fatalf("walmart category = %q", wm.Category)
	}
	if wm.AccountSuffix != "4421" {
		t.Fatalf("suffix = %q", wm.AccountSuffix)
	}

	pay := byDesc["PAYROLL DEPOSIT ACME CORP"]
	if pay.Type != TxIncome || !pay.Amount.Equal(decimal.RequireFromString("1500.00")) {
		t.Fatalf("payroll: type=%s amount=%s desc keys=%v", pay.Type, pay.Amount, byDesc)
	}
	if !pay.Date.Equal(time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("payroll date = %s", pay.Date)
	}

	var summary *Transaction
	for i := range res.Transactions {
		if res.Transactions[i].SummaryLine {
			summary = &res.Transactions[i]
		}
	}
	if summary == nil {
		t.Fatal("no summary line emitted")
	}
	if summary.Type != TxExpense || !summary.Amount.Equal(decimal.RequireFromString("-345.67")) {
		t.Fatalf("summary: type=%s amount=%s", summary.Type, summary.Amount)
	}
}

func TestProcessDocumentIdempotentReupload(t *testing.T) {
	store := newMemStore()
	data := []byte("same statement bytes")

	p1 := newTestPipeline(store, &fakeEngine{pages: []string{samplePage}}, &fakeRaster{pages: 1})
	res1, err := p1.ProcessDocument(data, "stmt.pdf", nil)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	store.seen[res1.Hash] = true

	p2 := newTestPipeline(store, &fakeEngine{pages: []string{samplePage}}, &fakeRaster{pages: 1})
	res2, err := p2.ProcessDocument(data, "stmt.pdf", nil)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !res2.Duplicate {
		t.Fatal("re-upload not flagged duplicate")
	}
	if len(res2.Transactions) != 0 {
		t.Fatalf("re-upload yielded %d transactions, want 0", len(res2.Transactions))
	}
}

func TestProcessDocumentEngineInitFatal(t *testing.T) {
	store := newMemStore()
	engine := &fakeEngine{initErr: errors.New("no tesseract")}
	p := newTestPipeline(store, engine, &fakeRaster{pages: 1})
	if _, err := p.ProcessDocument([]byte("x"), "stmt.pdf", nil); err == nil {
		t.Fatal("engine init failure must abort the document")
	}
}

func TestProcessDocumentRenderFatal(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(store, &fakeEngine{}, &fakeRaster{pages: 2, renderErr: errors.New("raster broke")})
	if _, err := p.ProcessDocument([]byte("x"), "stmt.pdf", nil); err == nil {
		t.Fatal("rasterization failure must abort the document")
	}
}

func TestProcessDocumentOCRFailureDegrades(t *testing.T) {
	// A failing recognizer loses the page text but not the document.
	store := newMemStore()
	engine := &fakeEngine{recErr: errors.New("ocr blew up")}
	p := newTestPipeline(store, engine, &fakeRaster{pages: 1})
	res, err := p.ProcessDocument([]byte("x"), "stmt.pdf", nil)
	if err != nil {
		t.Fatalf("per-page OCR failure must not abort: %v", err)
	}
	if len(res.Transactions) != 0 {
		t.Fatalf("got %d transactions from failed OCR", len(res.Transactions))
	}
}

func TestProcessDocumentDedupesAgainstStore(t *testing.T) {
	store := newMemStore()
	store.txs = []Transaction{{
		Date:        time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-45.00"),
		Description: "WALMART #1234 PURCHASE",
	}}
	p := newTestPipeline(store, &fakeEngine{pages: []string{samplePage}}, &fakeRaster{pages: 1})
	res, err := p.ProcessDocument([]byte("y"), "stmt.pdf", nil)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	for _, x := range res.Transactions {
		if x.Description == "WAL-MART #1234 PURCHASE" {
			t.Fatal("stored fuzzy duplicate was re-added")
		}
	}
}
