package extract

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/disintegration/imaging"
)

// DocumentGate answers whether a content hash was processed before.
type DocumentGate interface {
	SeenHash(hash string) (bool, error)
}

// TransactionStore is the persisted-transaction collaborator: read access
// for duplicate validation, append access for final persistence.
type TransactionStore interface {
	Existing() ([]Transaction, error)
	Add(txs []Transaction) error
}

// ProgressFunc is invoked synchronously after each page completes.
type ProgressFunc func(page, total int)

// Pipeline sequences hashing, rasterization, preprocessing, OCR, parsing,
// normalization, classification, and duplicate suppression for one document
// at a time. The OCR session is shared, stateful state, so pages run
// sequentially and documents are single-flight.
type Pipeline struct {
	cfg    Config
	engine Engine
	pre    *Preprocessor
	cat    *Categorizer
	val    *Validator
	gate   DocumentGate
	store  TransactionStore

	// raster overrides per-upload rasterizer selection; used by tests and
	// callers with pre-rendered pages.
	raster Rasterizer

	now func() time.Time
}

// NewPipeline wires a pipeline session. The preprocessor capability probe
// and keyword tables are built here, once, never per page.
func NewPipeline(cfg Config, engine Engine, gate DocumentGate, store TransactionStore) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		engine: engine,
		pre:    NewPreprocessor(),
		cat:    NewCategorizer(),
		val:    NewValidator(cfg),
		gate:   gate,
		store:  store,
		now:    time.Now,
	}
}

// SetRasterizer forces a rasterizer instead of picking one by file type.
func (p *Pipeline) SetRasterizer(r Rasterizer) { p.raster = r }

// ProcessDocument runs the whole pipeline over one uploaded document.
//
// A re-uploaded document (same content hash) is not an error: the result
// comes back with Duplicate set and zero transactions. Heuristic failures
// are absorbed per page or per line. Only hashing-gate lookups, page
// rasterization, OCR engine initialization, and store access can fail the
// document.
func (p *Pipeline) ProcessDocument(data []byte, name string, progress ProgressFunc) (*Result, error) {
	res := &Result{Hash: ContentHash(data)}

	seen, err := p.gate.SeenHash(res.Hash)
	if err != nil {
		return nil, fmt.Errorf("hash gate: %w", err)
	}
	if seen {
		log.Printf("pipeline: %s already processed (hash %s), skipping", name, res.Hash[:12])
		res.Duplicate = true
		return res, nil
	}

	raster := p.raster
	if raster == nil {
		if raster, err = RasterizerFor(name); err != nil {
			return nil, err
		}
	}
	total, err := raster.PageCount(data)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if total < 1 {
		return nil, ErrNoPages
	}
	res.Pages = total

	if err := p.engine.Init(); err != nil {
		return nil, fmt.Errorf("ocr engine: %w", err)
	}
	defer p.engine.Close()

	workDir, err := os.MkdirTemp("", "stmt-pages-")
	if err != nil {
		return nil, fmt.Errorf("work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	ref := p.now()
	if hint, ok := FilenameDate(name); ok {
		ref = hint
	}

	var cands []Transaction
	summaryDone := false
	for page := 0; page < total; page++ {
		pagePath, err := raster.Render(data, page, workDir)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page+1, err)
		}

		text := p.recognizePage(pagePath, workDir)
		if res.Period == nil {
			if period, ok := DetectPeriod(text); ok {
				res.Period = &period
				log.Printf("pipeline: %s statement period %s .. %s", name,
					period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
			}
		}
		suffix := AccountSuffix(text)

		for _, c := range ScanLines(text) {
			if tx, ok := p.finalize(c, ref, res.Period, suffix); ok {
				cands = append(cands, tx)
			}
		}
		if !summaryDone {
			if c, ok := ScanSummary(text, p.cfg); ok {
				if tx, ok := p.finalize(c, ref, res.Period, suffix); ok {
					cands = append(cands, tx)
					summaryDone = true
				}
			}
		}

		if progress != nil {
			progress(page+1, total)
		}
	}

	existing, err := p.store.Existing()
	if err != nil {
		return nil, fmt.Errorf("load existing transactions: %w", err)
	}
	fresh := p.val.FilterNew(cands, existing)
	if len(fresh) > 0 {
		if err := p.store.Add(fresh); err != nil {
			return nil, fmt.Errorf("persist transactions: %w", err)
		}
	}
	res.Transactions = fresh
	log.Printf("pipeline: %s pages=%d candidates=%d new=%d", name, total, len(cands), len(fresh))
	return res, nil
}

// recognizePage preprocesses and OCRs one page. Both stages are best-effort:
// a preprocessing failure falls back to the rendered page, an OCR failure
// yields empty text so the rest of the document still processes.
func (p *Pipeline) recognizePage(pagePath, workDir string) string {
	ocrPath := pagePath
	if img, err := imaging.Open(pagePath); err == nil {
		processed := p.pre.Apply(img)
		if tmp, err := os.CreateTemp(workDir, "pre-*.png"); err == nil {
			tmp.Close()
			if err := imaging.Save(processed, tmp.Name()); err == nil {
				ocrPath = tmp.Name()
			}
		}
	} else {
		log.Printf("pipeline: open page %s: %v (OCR on raw render)", pagePath, err)
	}
	text, err := p.engine.Recognize(ocrPath)
	if err != nil {
		log.Printf("pipeline: ocr failed on %s: %v (page skipped)", ocrPath, err)
		return ""
	}
	return text
}

// finalize normalizes one candidate into a Transaction. This is the single
// boundary where the sign convention is enforced: the amount is signed, the
// type is derived here once, and expense amounts leave non-positive.
func (p *Pipeline) finalize(c Candidate, ref time.Time, period *Period, suffix string) (Transaction, bool) {
	amount := NormalizeAmount(c.AmountRaw, p.cfg)
	if amount.IsZero() {
		// Irrecoverable or implausible amount token. A zero-amount row
		// carries no information worth persisting.
		return Transaction{}, false
	}

	var date time.Time
	if c.Summary {
		switch {
		case period != nil:
			date = period.End
		default:
			date = ref
		}
	} else {
		var err error
		date, err = ResolveDate(c.DateRaw, ref, period)
		if err != nil {
			log.Printf("pipeline: skip line, %v", err)
			return Transaction{}, false
		}
	}

	desc := CleanDescription(c.DescRaw)
	typ := ClassifyType(desc, amount)
	if c.Summary {
		// A statement balance rollup is what is owed, not an inflow.
		typ = TxExpense
	}
	if typ == TxExpense {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}

	return Transaction{
		Date:          date,
		Amount:        amount,
		Description:   desc,
		Type:          typ,
		Category:      p.cat.Category(desc, typ),
		SummaryLine:   c.Summary,
		AccountSuffix: suffix,
	}, true
}
