// extract_debug runs the extraction pipeline over one statement file with no
// database, printing what each stage produced. Useful when tuning OCR against
// a statement that parses badly.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"bankstmt/pkg/extract"
)

// memStore satisfies the pipeline's gate and store with no persistence.
type memStore struct{}

func (memStore) SeenHash(string) (bool, error)            { return false, nil }
func (memStore) Existing() ([]extract.Transaction, error) { return nil, nil }
func (memStore) Add([]extract.Transaction) error          { return nil }

func main() {
	f := flag.String("file", "", "statement file (pdf or image)")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	data, err := os.ReadFile(*f)
	if err != nil {
		log.Fatalf("read %s: %v", *f, err)
	}

	p := extract.NewPipeline(extract.DefaultConfig(), extract.NewTesseractEngine(), memStore{}, memStore{})
	res, err := p.ProcessDocument(data, filepath.Base(*f), func(page, total int) {
		log.Printf("page %d/%d", page, total)
	})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	fmt.Printf("hash=%s pages=%d\n", res.Hash, res.Pages)
	if res.Period != nil {
		fmt.Printf("period %s .. %s\n",
			res.Period.Start.Format("2006-01-02"), res.Period.End.Format("2006-01-02"))
	} else {
		fmt.Println("period not detected")
	}
	for _, t := range res.Transactions {
		fmt.Printf("%s  %10s  %-8s %-20s %s\n",
			t.Date.Format("2006-01-02"), t.Amount.StringFixed(2), t.Type, t.Category, t.Description)
	}
}
