// Package report writes the plain text summaries of a run.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"logogrouper/pkg/domain"
	"os"
	"path/filepath"
)

// Report file names, relative to the reports directory.
const (
	ScrapeResultsFile  = "scrape_results.txt"
	FailedDomainsFile  = "failed_domains.txt"
	ProcessResultsFile = "process_results.txt"
)

// Writer writes report files into a single directory.
type Writer struct {
	dir string
}

// WriteFetch writes the fetch summary and, when any domain failed, the list of
// failed domains in input order. A failed domains file of an earlier run is
// removed when nothing failed.
func (w *Writer) WriteFetch(summary domain.FetchSummary) error {
	if err := w.write(ScrapeResultsFile, func(out io.Writer) error {
		_, err := fmt.Fprintf(out, "Downloaded logos for %d domains out of %d (%.2f%%)\n",
			summary.Successful, summary.Total, summary.Percent())

		return err
	}); err != nil {
		return err
	}

	if len(summary.Failed) == 0 {
		err := os.Remove(w.path(FailedDomainsFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not remove stale failed domains: %w", err)
		}

		return nil
	}

	return w.write(FailedDomainsFile, func(out io.Writer) error {
		for _, d := range summary.Failed {
			if _, err := fmt.Fprintln(out, d); err != nil {
				return err
			}
		}

		return nil
	})
}

// WriteClusters writes every cluster with its member paths.
func (w *Writer) WriteClusters(clusters []domain.Cluster) error {
	return w.write(ProcessResultsFile, func(out io.Writer) error {
		for _, c := range clusters {
			if _, err := fmt.Fprintf(out, "Group %d:\n", c.ID); err != nil {
				return err
			}
			for _, m := range c.Members {
				if _, err := fmt.Fprintf(out, "  - %s\n", m); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (w *Writer) path(name string) string { return filepath.Join(w.dir, name) }

// write creates name and fills it through a buffered writer.
func (w *Writer) write(name string, fill func(io.Writer) error) (err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("could not create reports directory: %w", err)
	}

	f, err := os.Create(w.path(name))
	if err != nil {
		return fmt.Errorf("could not create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close %s: %w", name, cerr)
		}
	}()

	buf := bufio.NewWriter(f)
	if err := fill(buf); err != nil {
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("could not write %s: %w", name, err)
	}

	return nil
}

// NewWriter creates a Writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}
