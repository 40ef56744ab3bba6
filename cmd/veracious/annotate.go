package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/FrenchMajesty/veracious/pkg/document"
	"github.com/FrenchMajesty/veracious/pkg/storage"
	"github.com/spf13/cobra"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <page.html>",
	Short: "Annotate a saved feed page and write the tagged HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotate,
}

var annotateOutput string

func init() {
	annotateCmd.Flags().StringVarP(&annotateOutput, "output", "o", "", "output file (default stdout)")
}

// annotateSummary reports what a run over a page did
type annotateSummary struct {
	Batches   int
	Annotated int

	// Stopped is the outcome that ended the run early, if any
	Stopped *annotator.Outcome
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	doc, err := document.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	a, err := annotator.New(annotator.Config{
		Document:      doc,
		Classifier:    newRelayClient(cfg, logger),
		Store:         store,
		Logger:        logger,
		CacheCapacity: cfg.CacheCapacity,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := annotatePage(cmd.Context(), a)
	if err != nil {
		return err
	}
	if summary.Stopped != nil && summary.Stopped.Kind == annotator.OutcomeSuccess {
		logger.Warn("stopped before the page was fully annotated",
			"reason", "relay returned no results for the batch",
			"unmatched", summary.Stopped.Unmatched,
		)
	} else if summary.Stopped != nil {
		logger.Warn("stopped before the page was fully annotated",
			"outcome", summary.Stopped.Kind.String(),
			"detail", summary.Stopped.Detail,
			"error", summary.Stopped.Err,
		)
	}
	logger.Info("page annotated", "batches", summary.Batches, "annotated", summary.Annotated)

	return writeDocument(doc, annotateOutput, cmd.OutOrStdout())
}

// annotatePage runs cycles until nothing is left to classify or a batch does not succeed.
// A successful batch that neither cached nor annotated anything also ends the run, since its
// items would be resubmitted unchanged.
func annotatePage(ctx context.Context, a *annotator.Annotator) (annotateSummary, error) {
	var summary annotateSummary
	for {
		out, err := a.Cycle(ctx)
		if err != nil {
			return summary, err
		}
		if out == nil {
			return summary, nil
		}
		summary.Batches++
		if out.Kind != annotator.OutcomeSuccess {
			summary.Stopped = out
			return summary, nil
		}
		summary.Annotated += out.Annotated
		if len(out.Entries) == 0 && out.Annotated == 0 {
			summary.Stopped = out
			return summary, nil
		}
	}
}

func writeDocument(doc *document.Document, path string, stdout io.Writer) error {
	if path == "" {
		_, err := doc.WriteTo(stdout)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
