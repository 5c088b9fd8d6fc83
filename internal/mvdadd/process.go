package mvdadd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/mvd"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// Injectable functions for testing.
var (
	xzNewWriter = xz.NewWriter
	newID       = func() string { return uuid.New().String() }
)

// logOutput receives the log when the options reconfigure logging.
var logOutput io.Writer = os.Stderr

// Report is what Process writes to its output.
type Report struct {
	AlignmentID string      `json:"alignment_id"`
	Result      *mvd.Result `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	Diagnostics string      `json:"diagnostics,omitempty"`
	// diagnostic messages that did not fit in the log
	Dropped int `json:"dropped,omitempty"`
}

// Process implements plugins.Capability.Process. It adds data as a new
// version of doc and writes a report of the alignment to out.
func (h *Handler) Process(doc *mvd.Document, options string, data []byte, out io.Writer) error {
	if doc == nil {
		return errors.NewValidation("document", "no document to add to")
	}
	opts, err := ParseOptions(options)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return errors.NewValidation("data", "version text is not valid UTF-8")
	}
	if opts.LogLevel != "" || opts.LogFormat != "" {
		level, format, _ := opts.logConfig()
		logging.InitLoggerWriter(logOutput, level, format)
	}

	id := newID()
	ctx := logging.WithAlignmentID(context.Background(), id)
	logging.DebugContext(ctx, "add options", "short_name", opts.ShortName, "min_match", opts.MinMatch, "format", opts.Format, "xz", opts.XZ)
	log := logging.NewScratch(logging.ScratchLen)
	res, alignErr := doc.AddVersion(ctx, opts.meta(), string(data), mvd.Options{
		MinMatch: opts.MinMatch,
		Log:      log,
	})

	rep := &Report{
		AlignmentID: id,
		Result:      res,
		Diagnostics: log.String(),
		Dropped:     log.Dropped(),
	}
	if alignErr != nil {
		rep.Error = alignErr.Error()
		logging.ErrorContext(ctx, "alignment failed", "error", alignErr)
	} else {
		logging.InfoContext(ctx, "version added", "version", res.Version.ID, "short_name", res.Version.ShortName)
	}
	if rep.Dropped > 0 {
		logging.WarnContext(ctx, "diagnostic log full", "dropped", rep.Dropped)
	}
	if err := writeReport(out, rep, opts); err != nil {
		if alignErr != nil {
			return alignErr
		}
		return err
	}
	return alignErr
}

func writeReport(out io.Writer, rep *Report, opts *Options) (err error) {
	w := out
	if opts.XZ {
		xw, xerr := xzNewWriter(out)
		if xerr != nil {
			return errors.Wrap(xerr, "failed to create xz writer")
		}
		defer func() {
			if cerr := xw.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, "failed to finish xz stream")
			}
		}()
		w = xw
	}

	if opts.Format == "text" {
		return writeText(w, rep)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

func writeText(w io.Writer, rep *Report) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	p("alignment %s\n", rep.AlignmentID)
	if r := rep.Result; r != nil {
		p("version %d %s digest %s\n", r.Version.ID, r.Version.ShortName, r.Version.Digest)
		p("shared %d inserted %d of %d\n", r.Shared, r.Inserted, r.Version.Length)
		p("runs %d new %d splits %d hints %d unbalanced %d\n", r.Runs, r.NewRuns, r.Splits, r.Hints, r.Unbalanced)
	}
	if rep.Error != "" {
		p("error: %s\n", rep.Error)
	}
	if rep.Diagnostics != "" {
		p("%s", rep.Diagnostics)
	}
	if err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}
