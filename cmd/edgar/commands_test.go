package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pmezard/go-difflib/difflib"
	"lukechampine.com/blake3"

	"github.com/bebop/edgar/sgml"
)

/******************************************************************************

Testing command line utilities can be annoying.

The way edgar does it is by using the cli.App object to spoof input and
output via cli.App.Reader and cli.App.Writer. This is the only way to get
true stack traceable coverage.

******************************************************************************/

const dashedFixture = "../../data/dashed.sgml"

func TestExtractPipe(t *testing.T) {
	tmpDir := t.TempDir()

	app := application()
	var writeBuffer bytes.Buffer
	app.Writer = &writeBuffer
	file, err := os.ReadFile(dashedFixture)
	if err != nil {
		t.Fatal(err)
	}
	app.Reader = bytes.NewReader(file)

	args := append(os.Args[0:1], "extract", "-o", tmpDir)
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	document, err := os.ReadFile(filepath.Join(tmpDir, "document_0.xml"))
	if err != nil {
		t.Fatalf("first document missing: %v", err)
	}
	if string(document) != "Hello.\n" {
		t.Errorf("document_0.xml = %q, want %q", document, "Hello.\n")
	}

	graphic, err := os.ReadFile(filepath.Join(tmpDir, "document_1.jpg"))
	if err != nil {
		t.Fatalf("second document missing: %v", err)
	}
	if string(graphic) != "The test." {
		t.Errorf("document_1.jpg = %q, want %q", graphic, "The test.")
	}
}

func TestExtractFileMatchesGolden(t *testing.T) {
	tmpDir := t.TempDir()

	app := application()
	args := append(os.Args[0:1], "extract", "-o", tmpDir, dashedFixture)
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	written, err := os.ReadFile(filepath.Join(tmpDir, "metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	golden, err := os.ReadFile("../../data/dashed.metadata.golden.json")
	if err != nil {
		t.Fatal(err)
	}

	metadataDiff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(golden)),
		B:        difflib.SplitLines(string(written) + "\n"),
		FromFile: "golden",
		ToFile:   "extracted",
		Context:  3,
	}
	metadataDiffText, _ := difflib.GetUnifiedDiffString(metadataDiff)
	if metadataDiffText != "" {
		t.Errorf("metadata.json does not match the golden file. Got this diff:\n%s", metadataDiffText)
	}
}

func TestExtractSeveralFilesConcurrently(t *testing.T) {
	tmpDir := t.TempDir()

	app := application()
	args := append(os.Args[0:1], "extract", "-o", tmpDir,
		dashedFixture, "../../data/tab-default.sgml", "../../data/tab-privacy.sgml")
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	for _, stem := range []string{"dashed", "tab-default", "tab-privacy"} {
		if _, err := os.Stat(filepath.Join(tmpDir, stem, "metadata.json")); err != nil {
			t.Errorf("missing metadata.json for %s: %v", stem, err)
		}
	}
}

func TestExtractMetadataNames(t *testing.T) {
	tmpDir := t.TempDir()

	app := application()
	args := append(os.Args[0:1], "extract", "--names", "-o", tmpDir, dashedFixture)
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "primary.xml")); err != nil {
		t.Errorf("expected primary.xml from the filename tag: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "logo.gif")); err != nil {
		t.Errorf("expected logo.gif from the filename tag: %v", err)
	}
}

func TestHashPipeBlake3(t *testing.T) {
	app := application()
	var writeBuffer bytes.Buffer
	app.Writer = &writeBuffer
	file, err := os.ReadFile(dashedFixture)
	if err != nil {
		t.Fatal(err)
	}
	app.Reader = bytes.NewReader(file)

	args := append(os.Args[0:1], "hash")
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	first := blake3.Sum256([]byte("Hello.\n"))
	second := blake3.Sum256([]byte("The test."))
	want := "-\t0\t" + hex.EncodeToString(first[:]) + "\n" +
		"-\t1\t" + hex.EncodeToString(second[:]) + "\n"
	if diff := cmp.Diff(want, writeBuffer.String()); diff != "" {
		t.Errorf("hash output mismatch (-want +got):\n%s", diff)
	}
}

func TestHashFileSHA256(t *testing.T) {
	app := application()
	var writeBuffer bytes.Buffer
	app.Writer = &writeBuffer

	args := append(os.Args[0:1], "hash", "-f", "sha256", dashedFixture)
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	sum := sha256.Sum256([]byte("Hello.\n"))
	if !strings.Contains(writeBuffer.String(), hex.EncodeToString(sum[:])) {
		t.Errorf("hash output missing sha256 of first document:\n%s", writeBuffer.String())
	}
}

func TestBenchmarkCommand(t *testing.T) {
	tmpDir := t.TempDir()
	tsvPath := filepath.Join(tmpDir, "results.tsv")

	app := application()
	var writeBuffer bytes.Buffer
	app.Writer = &writeBuffer

	args := append(os.Args[0:1], "benchmark", "-o", tsvPath, "../../data")
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	output := writeBuffer.String()
	for _, name := range []string{"dashed.sgml", "tab-default.sgml", "tab-privacy.sgml"} {
		if !strings.Contains(output, name) {
			t.Errorf("benchmark table missing %s:\n%s", name, output)
		}
	}
	if !strings.Contains(output, "Total files: 3") {
		t.Errorf("benchmark summary missing totals:\n%s", output)
	}

	tsv, err := os.ReadFile(tsvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(tsv), "filename\ttime_seconds\tstatus\n") {
		t.Errorf("TSV report has wrong header:\n%s", tsv)
	}
}

func TestIndexCommand(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "filings.db")

	app := application()
	var writeBuffer bytes.Buffer
	app.Writer = &writeBuffer

	args := append(os.Args[0:1], "index", "-d", dbPath, dashedFixture)
	if err := app.Run(args); err != nil {
		t.Fatalf("Run error: %s", err)
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var accession string
	if err := db.Get(&accession, "SELECT accession FROM filing"); err != nil {
		t.Fatal(err)
	}
	if accession != "0001628280-24-002390" {
		t.Errorf("accession = %q, want %q", accession, "0001628280-24-002390")
	}

	var documents int
	if err := db.Get(&documents, "SELECT COUNT(*) FROM document"); err != nil {
		t.Fatal(err)
	}
	if documents != 2 {
		t.Errorf("document rows = %d, want 2", documents)
	}
}

func TestDocumentExtension(t *testing.T) {
	graphic := sgml.NewDict()
	graphic.Set("type", sgml.Text("GRAPHIC"))
	byFilename := sgml.NewDict()
	byFilename.Set("type", sgml.Text("EX-10.1"))
	byFilename.Set("filename", sgml.Text("exhibit.htm"))
	byFormat := sgml.NewDict()
	byFormat.Set("format", sgml.Text("ascii"))

	tests := []struct {
		name     string
		metadata *sgml.Dict
		content  []byte
		want     string
	}{
		{"type table wins", graphic, []byte("x"), "jpg"},
		{"filename extension", byFilename, []byte("x"), "htm"},
		{"format table", byFormat, []byte("x"), "txt"},
		{"text fallback", sgml.NewDict(), []byte("plain"), "txt"},
		{"binary fallback", sgml.NewDict(), []byte{0x47, 0x00, 0x46}, "bin"},
		{"nil metadata", nil, []byte("plain"), "txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documentExtension(tt.metadata, tt.content); got != tt.want {
				t.Errorf("documentExtension = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"primary.htm", "primary.htm"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{"report (final).txt", "report__final_.txt"},
		{"..hidden", "hidden"},
	}
	for _, tt := range tests {
		if got := safeFilename(tt.input); got != tt.want {
			t.Errorf("safeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
