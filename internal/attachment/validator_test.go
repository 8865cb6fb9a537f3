package attachment

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

const mb = 1024 * 1024

func file(name string, size int64, mimeType string) model.AttachmentCandidate {
	return model.AttachmentCandidate{Name: name, Size: size, MIMEType: mimeType}
}

func TestValidateRejectsWholeBatchOverMaxFiles(t *testing.T) {
	var incoming []model.AttachmentCandidate
	for i := 0; i < 6; i++ {
		incoming = append(incoming, file(fmt.Sprintf("f%d.pdf", i), mb, "application/pdf"))
	}
	res := Validate(nil, incoming, DefaultLimits())
	if len(res.Accepted) != 0 {
		t.Fatalf("expected no accepted files, got %d", len(res.Accepted))
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Maximum 5 files allowed" {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateCountsExistingFiles(t *testing.T) {
	existing := []model.AttachmentCandidate{file("a.pdf", 1, ""), file("b.pdf", 2, ""), file("c.pdf", 3, "")}
	incoming := []model.AttachmentCandidate{file("d.pdf", 4, ""), file("e.pdf", 5, ""), file("f.pdf", 6, "")}
	res := Validate(existing, incoming, DefaultLimits())
	if len(res.Accepted) != 0 || len(res.Errors) != 1 {
		t.Fatalf("expected all-or-nothing rejection, got %+v", res)
	}

	res = Validate(existing, incoming[:2], DefaultLimits())
	if len(res.Accepted) != 2 || len(res.Errors) != 0 {
		t.Fatalf("expected both files accepted at the limit, got %+v", res)
	}
}

func TestValidateDuplicateWithinBatch(t *testing.T) {
	incoming := []model.AttachmentCandidate{
		file("a.pdf", 5*mb, "application/pdf"),
		file("a.pdf", 5*mb, "application/pdf"),
	}
	res := Validate(nil, incoming, DefaultLimits())
	if len(res.Accepted) != 1 {
		t.Fatalf("expected one accepted file, got %d", len(res.Accepted))
	}
	if len(res.Errors) != 1 || res.Errors[0] != "a.pdf is already selected" {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateDuplicateRequiresNameAndSize(t *testing.T) {
	existing := []model.AttachmentCandidate{file("a.pdf", 100, "application/pdf")}
	incoming := []model.AttachmentCandidate{
		file("a.pdf", 101, "application/pdf"),
		file("b.pdf", 100, "application/pdf"),
		file("a.pdf", 100, "application/pdf"),
	}
	res := Validate(existing, incoming, DefaultLimits())
	if len(res.Accepted) != 2 {
		t.Fatalf("expected 2 accepted, got %+v", res.Accepted)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "a.pdf is already selected" {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidatePerFileRules(t *testing.T) {
	incoming := []model.AttachmentCandidate{
		file("big.pdf", 10*mb+1, "application/pdf"),
		file("edge.pdf", 10*mb, "application/pdf"),
		file("script.exe", 10, "application/x-msdownload"),
		file("photo.HEIC", 10, "image/heic"),
		file("REPORT.DOCX", 10, ""),
		file("empty.txt", 0, "text/plain"),
	}
	res := Validate(nil, incoming, Limits{MaxFiles: 10, MaxFileSizeMB: 10, AcceptedTypes: DefaultLimits().AcceptedTypes})
	wantErrors := []string{
		"big.pdf exceeds 10MB limit",
		"script.exe is not a supported file type",
	}
	if fmt.Sprint(res.Errors) != fmt.Sprint(wantErrors) {
		t.Fatalf("errors = %v, want %v", res.Errors, wantErrors)
	}
	var names []string
	for _, a := range res.Accepted {
		names = append(names, a.Name)
	}
	if fmt.Sprint(names) != "[edge.pdf photo.HEIC REPORT.DOCX empty.txt]" {
		t.Fatalf("accepted = %v", names)
	}
}

func TestValidateSizeRuleBeforeTypeRule(t *testing.T) {
	res := Validate(nil, []model.AttachmentCandidate{file("huge.exe", 20*mb, "")}, DefaultLimits())
	if len(res.Errors) != 1 || res.Errors[0] != "huge.exe exceeds 10MB limit" {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestLimitsFromConfig(t *testing.T) {
	l := LimitsFromConfig(model.AttachmentConfig{MaxFiles: 2})
	if l.MaxFiles != 2 || l.MaxFileSizeMB != 10 || len(l.AcceptedTypes) != 13 {
		t.Fatalf("unexpected limits %+v", l)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		0:                  "0 Bytes",
		500:                "500 Bytes",
		1024:               "1 KB",
		1536:               "1.5 KB",
		1234567:            "1.18 MB",
		10 * mb:            "10 MB",
		3 * 1024 * mb / 2:  "1.5 GB",
		5000 * 1024 * mb:   "5000 GB",
	}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Fatalf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStageReadsFileInfo(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}
	noExt := filepath.Join(dir, "notes")
	if err := os.WriteFile(noExt, []byte("plain words"), 0644); err != nil {
		t.Fatal(err)
	}
	staged, err := Stage([]string{pdf, noExt})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if staged[0].Name != "a.pdf" || staged[0].Size != 8 || staged[0].MIMEType != "application/pdf" {
		t.Fatalf("unexpected candidate %+v", staged[0])
	}
	if staged[1].MIMEType != "text/plain" {
		t.Fatalf("expected sniffed text/plain, got %q", staged[1].MIMEType)
	}
	if staged[0].ID == "" || staged[0].ID == staged[1].ID {
		t.Fatalf("staging ids must be unique")
	}
	if _, err := Stage([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
