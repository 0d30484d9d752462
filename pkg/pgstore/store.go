// Package pgstore binds the extraction pipeline to the Postgres layer:
// the duplicate gate, the transaction store, and the document status machine.
package pgstore

import (
	"gorm.io/gorm"

	"bankstmt/models"
	"bankstmt/pkg/extract"
)

// DocStore adapts the database to the pipeline's gate and store interfaces
// for one user and one in-flight document. It is built per ingest, after the
// document row exists, so the hash gate can exclude the row itself.
type DocStore struct {
	DB     *gorm.DB
	UserID uint
	DocID  uint
}

// SeenHash reports whether another non-failed document of this user carries
// the same content hash. Failed documents do not count: their row is kept
// for review but must not block a re-submit.
func (s *DocStore) SeenHash(hash string) (bool, error) {
	var n int64
	err := s.DB.Model(&models.Document{}).
		Where("user_id = ? AND content_hash = ? AND id <> ? AND status <> ?",
			s.UserID, hash, s.DocID, models.DocStatusError).
		Count(&n).Error
	return n > 0, err
}

// Existing loads every stored transaction of the user, across documents, for
// cross-statement duplicate validation.
func (s *DocStore) Existing() ([]extract.Transaction, error) {
	var rows []models.Transaction
	if err := s.DB.Where("user_id = ?", s.UserID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]extract.Transaction, len(rows))
	for i, r := range rows {
		out[i] = extract.Transaction{
			Date:          r.Date,
			Amount:        r.Amount,
			Description:   r.Description,
			Type:          extract.TxType(r.Type),
			Category:      r.Category,
			SummaryLine:   r.SummaryLine,
			AccountSuffix: r.AccountSuffix,
		}
	}
	return out, nil
}

// Add persists freshly extracted transactions under the in-flight document.
func (s *DocStore) Add(txs []extract.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]models.Transaction, len(txs))
	for i, t := range txs {
		rows[i] = models.Transaction{
			UserID:        s.UserID,
			DocumentID:    s.DocID,
			Date:          t.Date,
			Amount:        t.Amount,
			Description:   t.Description,
			Type:          string(t.Type),
			Category:      t.Category,
			SummaryLine:   t.SummaryLine,
			AccountSuffix: t.AccountSuffix,
		}
	}
	return s.DB.Create(&rows).Error
}

// markProcessing flips a pending document to processing.
func markProcessing(db *gorm.DB, doc *models.Document) error {
	doc.Status = models.DocStatusProcessing
	return db.Model(doc).Update("status", doc.Status).Error
}

// markCompleted records the extraction outcome on the document row.
func markCompleted(db *gorm.DB, doc *models.Document, res *extract.Result) error {
	doc.Status = models.DocStatusCompleted
	doc.Duplicate = res.Duplicate
	doc.Pages = res.Pages
	doc.TransactionCount = len(res.Transactions)
	doc.AccountSuffix = txSuffix(res.Transactions)
	doc.Error = ""
	if res.Period != nil {
		start, end := res.Period.Start, res.Period.End
		doc.PeriodStart, doc.PeriodEnd = &start, &end
	}
	return db.Save(doc).Error
}

// markFailed records a fatal pipeline error. The row survives so the owner
// can see what happened and upload again.
func markFailed(db *gorm.DB, doc *models.Document, cause error) error {
	doc.Status = models.DocStatusError
	msg := cause.Error()
	if len(msg) > 512 {
		msg = msg[:512]
	}
	doc.Error = msg
	return db.Save(doc).Error
}

// txSuffix picks the account suffix off the extracted rows, first hit wins.
func txSuffix(txs []extract.Transaction) string {
	for _, t := range txs {
		if t.AccountSuffix != "" {
			return t.AccountSuffix
		}
	}
	return ""
}
