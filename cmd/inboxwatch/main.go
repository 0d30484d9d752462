// inboxwatch scans a drop directory for statement files, runs each through
// the extraction pipeline for a given user, and optionally keeps watching
// for new files. Processed files are moved aside so a restart does not
// re-feed them; the content-hash gate catches anything that slips through.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bankstmt/models"
	"bankstmt/pkg/extract"
	"bankstmt/pkg/pgstore"
)

var verbose bool

func main() {
	dirFlag := flag.String("dir", "inbox", "directory to scan for statement files")
	username := flag.String("username", "admin", "user to attach extracted documents to")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	dryRun := flag.Bool("dry-run", false, "list candidate files without touching the DB")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	files := listStatementFiles(*dirFlag)
	if *dryRun {
		log.Printf("Dry-run: %d candidate files in %s", len(files), *dirFlag)
		for _, f := range files {
			log.Printf("  %s", f)
		}
		return
	}

	db := mustInitDBFromEnv()
	user := resolveUser(db, *username)
	ing := pgstore.NewIngestor(db, extract.NewTesseractEngine())

	log.Printf("Scanning %d files for user %s", len(files), user.Username)
	for _, f := range files {
		processFile(ing, user.ID, *dirFlag, f)
	}

	if *watch {
		if err := watchDirectory(ing, user.ID, *dirFlag); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

func resolveUser(db *gorm.DB, username string) models.User {
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		log.Fatalf("user %s not found: %v", username, err)
	}
	return u
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func listStatementFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// processFile ingests one file and moves it to the processed directory. The
// ingestor serializes pipeline runs internally, so callers stay simple.
func processFile(ing *pgstore.Ingestor, userID uint, dir, name string) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("ERROR read %s: %v", path, err)
		return
	}
	doc, res, err := ing.Ingest(userID, name, data)
	if err != nil {
		log.Printf("ERROR ingest %s: %v", name, err)
		if doc == nil {
			return
		}
		// failed documents still move aside; the row holds the reason
	} else if res.Duplicate {
		logV("DUPLICATE %s (hash seen before)", name)
	} else {
		log.Printf("INGESTED %s pages=%d transactions=%d", name, res.Pages, len(res.Transactions))
	}
	if err := moveToProcessed(dir, name); err != nil {
		log.Printf("WARN move processed %s: %v", name, err)
	}
}

func watchDirectory(ing *pgstore.Ingestor, userID uint, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	// debounce so half-written files settle before they are read
	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				name := filepath.Base(ev.Name)
				if isSupportedExt(name) {
					pending[name] = time.Now()
				}
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > 500*time.Millisecond {
					delete(pending, name)
					processFile(ing, userID, dir, name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// moveToProcessed moves a handled file into <dir>/processed, preferring an
// atomic rename with a copy+remove fallback across filesystems.
func moveToProcessed(dir, name string) error {
	processedDir := filepath.Join(dir, "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)
	src := filepath.Join(dir, name)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
