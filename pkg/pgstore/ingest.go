package pgstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bankstmt/models"
	"bankstmt/pkg/extract"
)

// Ingestor runs uploaded documents through the extraction pipeline and keeps
// the document status machine in the database current. The OCR engine holds
// one stateful worker, so ingests are serialized.
type Ingestor struct {
	DB     *gorm.DB
	Engine extract.Engine
	Cfg    extract.Config

	mu sync.Mutex
}

// NewIngestor wires an ingestor with the default extraction thresholds.
func NewIngestor(db *gorm.DB, engine extract.Engine) *Ingestor {
	return &Ingestor{DB: db, Engine: engine, Cfg: extract.DefaultConfig()}
}

// Ingest creates the document row, processes the file, and records the
// outcome. The returned document always reflects the final status; a non-nil
// error means processing failed fatally and the row is marked accordingly.
// Only a failure to create the row at all returns a nil document.
func (g *Ingestor) Ingest(userID uint, name string, data []byte) (*models.Document, *extract.Result, error) {
	doc := models.Document{
		UserID:       userID,
		PublicID:     uuid.NewString(),
		Name:         name,
		ContentHash:  extract.ContentHash(data),
		Status:       models.DocStatusPending,
		DocumentDate: documentDateHint(name),
	}
	if err := g.DB.Create(&doc).Error; err != nil {
		return nil, nil, err
	}
	if err := markProcessing(g.DB, &doc); err != nil {
		return &doc, nil, err
	}

	store := &DocStore{DB: g.DB, UserID: userID, DocID: doc.ID}
	g.mu.Lock()
	pipeline := extract.NewPipeline(g.Cfg, g.Engine, store, store)
	res, err := pipeline.ProcessDocument(data, name, nil)
	g.mu.Unlock()
	if err != nil {
		if dbErr := markFailed(g.DB, &doc, err); dbErr != nil {
			return &doc, nil, dbErr
		}
		return &doc, nil, err
	}
	if err := markCompleted(g.DB, &doc, res); err != nil {
		return &doc, res, err
	}
	return &doc, res, nil
}

// documentDateHint resolves the filename-derived statement date, if any.
func documentDateHint(name string) *time.Time {
	if d, ok := extract.FilenameDate(name); ok {
		return &d
	}
	return nil
}
