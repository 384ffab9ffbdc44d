package main

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/persistorai/conceptmap/internal/models"
)

// report holds the final migration summary.
type report struct {
	Target   string
	DryRun   bool
	Embedded int
	Version  int64
	Pending  []string
	Applied  []string
	Stats    *models.GraphStats
	Duration time.Duration
	Err      error
}

// sanitizeURL strips credentials from a database URL for display.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable URL]"
	}

	u.User = nil

	return u.String()
}

func printReport(w io.Writer, r *report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Concept Map Migration Report ===")

	if r.DryRun {
		fmt.Fprintln(w, "MODE: DRY RUN (no changes made)")
	}

	fmt.Fprintf(w, "Target: %s\n", r.Target)
	fmt.Fprintf(w, "Embedded migrations: %d\n", r.Embedded)

	if !r.DryRun && r.Err == nil {
		fmt.Fprintf(w, "Schema version: %d\n", r.Version)
	}

	printFiles(w, "Pending", r.Pending)
	printFiles(w, "Applied", r.Applied)

	if r.Stats != nil {
		fmt.Fprintf(w, "\nGraph: %d articles, %d concepts, %d fields, %d relationships\n",
			r.Stats.Articles, r.Stats.Concepts, r.Stats.Fields, r.Stats.Relationships)
	}

	fmt.Fprintf(w, "\nDuration: %.1fs\n", r.Duration.Seconds())

	if r.Err != nil {
		fmt.Fprintf(w, "Status: FAILED: %v\n", r.Err)

		return
	}

	fmt.Fprintln(w, "Status: OK")
}

func printFiles(w io.Writer, label string, files []string) {
	if len(files) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s:\n", label)

	for _, f := range files {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}
