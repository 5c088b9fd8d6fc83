package mvdadd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/mvd"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

func fixedID(t *testing.T) {
	t.Helper()
	orig := newID
	newID = func() string { return "test-alignment" }
	t.Cleanup(func() { newID = orig })
}

func process(t *testing.T, doc *mvd.Document, options, data string) *Report {
	t.Helper()
	var out bytes.Buffer
	h := &Handler{}
	if err := h.Process(doc, options, []byte(data), &out); err != nil {
		t.Fatalf("Process(%q) error = %v", options, err)
	}
	var rep Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out.String())
	}
	return &rep
}

func TestProcessJSON(t *testing.T) {
	fixedID(t)
	doc := mvd.New()

	rep := process(t, doc, "-s A", "the cat sat on the mat")
	if rep.AlignmentID != "test-alignment" || rep.Error != "" {
		t.Errorf("report = %+v", rep)
	}
	if rep.Result == nil || rep.Result.Version.ID != 1 || rep.Result.Version.ShortName != "A" {
		t.Fatalf("result = %+v", rep.Result)
	}
	if rep.Result.Inserted != 22 || rep.Result.Shared != 0 {
		t.Errorf("first version shared %d inserted %d", rep.Result.Shared, rep.Result.Inserted)
	}

	rep = process(t, doc, `-s B -l "Second"`, "the cat sat on a mat")
	r := rep.Result
	if r.Version.ID != 2 || r.Version.LongName != "Second" {
		t.Fatalf("result = %+v", r)
	}
	if r.Shared == 0 || r.Shared+r.Inserted != r.Version.Length {
		t.Errorf("shared %d + inserted %d != length %d", r.Shared, r.Inserted, r.Version.Length)
	}
	if got, _ := doc.VersionText(2); got != "the cat sat on a mat" {
		t.Errorf("VersionText(2) = %q", got)
	}
}

func TestProcessText(t *testing.T) {
	fixedID(t)
	var out bytes.Buffer
	h := &Handler{}
	if err := h.Process(mvd.New(), "-s KJV --format=text", []byte("in the beginning"), &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"alignment test-alignment\n",
		"version 1 KJV digest ",
		"shared 0 inserted 16 of 16\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("text report missing %q:\n%s", want, out.String())
		}
	}
}

func TestProcessXZ(t *testing.T) {
	var out bytes.Buffer
	h := &Handler{}
	if err := h.Process(mvd.New(), "--xz", []byte("compressed report"), &out); err != nil {
		t.Fatal(err)
	}
	r, err := xz.NewReader(&out)
	if err != nil {
		t.Fatalf("xz.NewReader: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading xz stream: %v", err)
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("decompressed report is not JSON: %v", err)
	}
	if rep.Result == nil || rep.Result.Version.Length != 17 {
		t.Errorf("result = %+v", rep.Result)
	}
}

func TestProcessXZWriterError(t *testing.T) {
	orig := xzNewWriter
	xzNewWriter = func(io.Writer) (*xz.Writer, error) { return nil, errors.ErrInternal }
	defer func() { xzNewWriter = orig }()

	var out bytes.Buffer
	h := &Handler{}
	err := h.Process(mvd.New(), "--xz", []byte("text"), &out)
	if !errors.Is(err, errors.ErrInternal) {
		t.Errorf("error = %v, want the writer error", err)
	}
}

func TestProcessRejectsInput(t *testing.T) {
	h := &Handler{}
	var out bytes.Buffer
	tests := []struct {
		name    string
		doc     *mvd.Document
		options string
		data    []byte
	}{
		{"nil document", nil, "", []byte("x")},
		{"bad options", mvd.New(), "--nope", []byte("x")},
		{"invalid UTF-8", mvd.New(), "", []byte{0xff, 0xfe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := h.Process(tt.doc, tt.options, tt.data, &out)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("error = %v, want invalid input", err)
			}
			if out.Len() != 0 {
				t.Errorf("wrote %q before validating input", out.String())
			}
		})
	}
}

func TestProcessDuplicateName(t *testing.T) {
	doc := mvd.New()
	process(t, doc, "-s A", "first")

	var out bytes.Buffer
	h := &Handler{}
	err := h.Process(doc, "-s A", []byte("second"), &out)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
	var rep Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("no report written on failure: %v", err)
	}
	if rep.Result != nil || !strings.Contains(rep.Error, "already in use") {
		t.Errorf("report = %+v", rep)
	}
}

func TestProcessReportsAllocationFailure(t *testing.T) {
	doc := mvd.NewWithCapacity(1)
	process(t, doc, "", "abc")

	var out bytes.Buffer
	h := &Handler{}
	err := h.Process(doc, "", []byte("xyz"), &out)
	if !errors.Is(err, errors.ErrAllocation) {
		t.Fatalf("error = %v, want allocation failure", err)
	}
	var rep Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rep.Diagnostics, "linkpair: failed to create object") {
		t.Errorf("diagnostics = %q", rep.Diagnostics)
	}
}

func TestProcessConfiguresLogging(t *testing.T) {
	var logs bytes.Buffer
	orig := logOutput
	logOutput = &logs
	defer func() {
		logOutput = orig
		logging.InitLogger(logging.LevelInfo, logging.FormatJSON)
	}()

	var out bytes.Buffer
	h := &Handler{}
	if err := h.Process(mvd.New(), "-s A --log-level=debug --log-format=text", []byte("some text"), &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"level=DEBUG", "add options", "version added", "alignment_id="} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %q:\n%s", want, logs.String())
		}
	}
	if strings.Contains(out.String(), "version added") {
		t.Error("log lines leaked into the report")
	}
}
