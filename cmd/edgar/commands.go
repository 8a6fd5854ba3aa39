package main

import (
	"crypto"
	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/crypto/blake2b"
	_ "golang.org/x/crypto/blake2s"
	_ "golang.org/x/crypto/sha3"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/blake3"

	"github.com/bebop/edgar/sgml"
)

/******************************************************************************

File is structured as so:

	Top level commands:
		Extract
		Hash
		Benchmark
		Index (index.go)

	Helper functions

This file contains a majority of the code that runs when command line
routines are run. Argument flags and helper text for each command are defined
in main.go which then makes calls to their corresponding function in this
file. This keeps main.go clean and readable.

Each command must also have a test in commands_test.go that demonstrates its
correct usage by spoofing input and output via cli.App.Reader and
cli.App.Writer.

******************************************************************************/

/******************************************************************************

extract has two modes. Pipe and fileio.

The function isPipe() detects if input is coming from a pipe like:

	cat filing.sgml | edgar extract -o outdir

In this case the submission is read from standard input and unpacked straight
into the output directory.

If not from a pipe, extract takes file arguments. A single file unpacks into
the output directory; several files unpack concurrently, each into a
subdirectory named after the file's stem:

	edgar extract -o unpacked *.sgml

Every unpack writes metadata.json plus one document_<i>.<ext> per embedded
document, with <ext> derived from the document's own metadata.

******************************************************************************/

func extractCommand(c *cli.Context) error {
	outputDir := c.String("o")

	if isPipe(c) {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}
		submission, err := sgml.Parse(data)
		if err != nil {
			return err
		}
		return writeSubmission(submission, outputDir, c.Bool("names"))
	}

	matches := getMatches(c)
	if len(matches) == 0 {
		return errors.New("extract needs at least one .sgml input file")
	}
	if len(matches) == 1 {
		submission, err := sgml.ParseFile(matches[0])
		if err != nil {
			return err
		}
		return writeSubmission(submission, outputDir, c.Bool("names"))
	}

	// several inputs unpack concurrently, one goroutine per file.
	var group errgroup.Group
	for _, match := range matches {
		match := match
		group.Go(func() error {
			submission, err := sgml.ParseFile(match)
			if err != nil {
				return err
			}
			stem := strings.TrimSuffix(filepath.Base(match), filepath.Ext(match))
			return writeSubmission(submission, filepath.Join(outputDir, stem), c.Bool("names"))
		})
	}
	return group.Wait()
}

// writeSubmission unpacks one parsed submission into dir.
func writeSubmission(submission *sgml.Submission, dir string, useNames bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	metadataJSON, err := json.MarshalIndent(submission.Metadata, "", " ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), metadataJSON, 0644); err != nil {
		return err
	}

	documentDicts := documentMetadata(submission)
	for i, content := range submission.Documents {
		var metadata *sgml.Dict
		if i < len(documentDicts) {
			metadata = documentDicts[i]
		}
		name := documentFilename(metadata, i, content, useNames)
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			return err
		}
	}
	return nil
}

// documentMetadata pulls the per-document dicts out of the metadata tree.
// The list parallels Submission.Documents by construction.
func documentMetadata(submission *sgml.Submission) []*sgml.Dict {
	value, ok := submission.Metadata.Get("documents")
	if !ok {
		return nil
	}
	list, ok := value.(sgml.List)
	if !ok {
		return nil
	}
	dicts := make([]*sgml.Dict, 0, len(list))
	for _, entry := range list {
		if dict, ok := entry.(*sgml.Dict); ok {
			dicts = append(dicts, dict)
		}
	}
	return dicts
}

// documentFilename picks the on-disk name for document i.
func documentFilename(metadata *sgml.Dict, i int, content []byte, useNames bool) string {
	if useNames && metadata != nil {
		if filename, ok := metadata.Text("filename"); ok && filename != "" {
			return safeFilename(filename)
		}
	}
	return fmt.Sprintf("document_%d.%s", i, documentExtension(metadata, content))
}

// typeExtensions maps the document type tag to a file extension.
var typeExtensions = map[string]string{
	"10-k":    "txt",
	"10-q":    "txt",
	"8-k":     "txt",
	"ex-101":  "xml",
	"html":    "html",
	"htm":     "html",
	"xml":     "xml",
	"pdf":     "pdf",
	"xbrl":    "xbrl",
	"graphic": "jpg",
	"jpg":     "jpg",
	"jpeg":    "jpg",
	"png":     "png",
	"gif":     "gif",
}

// formatExtensions maps the document format tag to a file extension.
var formatExtensions = map[string]string{
	"html":  "html",
	"htm":   "html",
	"pdf":   "pdf",
	"xml":   "xml",
	"text":  "txt",
	"ascii": "txt",
	"jpg":   "jpg",
	"jpeg":  "jpg",
	"png":   "png",
	"gif":   "gif",
}

// documentExtension derives a file extension from a document's metadata:
// the type table first, then the filename tag's own extension, then the
// format table. Unidentifiable binary content falls back to bin, text to txt.
func documentExtension(metadata *sgml.Dict, content []byte) string {
	if metadata != nil {
		if docType, ok := metadata.Text("type"); ok {
			if extension, ok := typeExtensions[strings.ToLower(docType)]; ok {
				return extension
			}
		}
		if filename, ok := metadata.Text("filename"); ok {
			if extension := strings.TrimPrefix(filepath.Ext(filename), "."); extension != "" {
				return safeFilename(extension)
			}
		}
		if format, ok := metadata.Text("format"); ok {
			if extension, ok := formatExtensions[strings.ToLower(format)]; ok {
				return extension
			}
		}
	}
	if isBinary(content) {
		return "bin"
	}
	return "txt"
}

// isBinary is a cheap sniff for decoded binary payloads.
func isBinary(content []byte) bool {
	limit := len(content)
	if limit > 512 {
		limit = 512
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}

// safeFilename keeps alphanumerics, dots, dashes, and underscores, and
// replaces everything else so metadata can never write outside the output
// directory.
func safeFilename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, name)
	return strings.TrimLeft(mapped, ".")
}

/******************************************************************************

hash prints one checksum per document in each submission, either from a pipe:

	cat filing.sgml | edgar hash

or from file arguments:

	edgar hash -f sha256 *.sgml

The -f flag picks the hash function. Blake3 is the default; the rest go
through the stdlib crypto registry.

******************************************************************************/

// Where each hash function comes from.
// MD5                         // import crypto/md5
// SHA1                        // import crypto/sha1
// SHA256                      // import crypto/sha256
// SHA512                      // import crypto/sha512
// SHA3_256                    // import golang.org/x/crypto/sha3
// SHA3_512                    // import golang.org/x/crypto/sha3
// BLAKE2s_256                 // import golang.org/x/crypto/blake2s
// BLAKE2b_256                 // import golang.org/x/crypto/blake2b
// BLAKE2b_512                 // import golang.org/x/crypto/blake2b
var hashFunctions = map[string]crypto.Hash{
	"MD5":         crypto.MD5,
	"SHA1":        crypto.SHA1,
	"SHA256":      crypto.SHA256,
	"SHA512":      crypto.SHA512,
	"SHA3_256":    crypto.SHA3_256,
	"SHA3_512":    crypto.SHA3_512,
	"BLAKE2S_256": crypto.BLAKE2s_256,
	"BLAKE2B_256": crypto.BLAKE2b_256,
	"BLAKE2B_512": crypto.BLAKE2b_512,
}

func hashCommand(c *cli.Context) error {
	hashFunc := c.String("f")

	if isPipe(c) {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}
		submission, err := sgml.Parse(data)
		if err != nil {
			return err
		}
		return printHashes(c.App.Writer, "-", submission, hashFunc)
	}

	matches := getMatches(c)
	if len(matches) == 0 {
		return errors.New("hash needs at least one .sgml input file")
	}
	for _, match := range matches {
		submission, err := sgml.ParseFile(match)
		if err != nil {
			return err
		}
		if err := printHashes(c.App.Writer, match, submission, hashFunc); err != nil {
			return err
		}
	}
	return nil
}

func printHashes(w io.Writer, source string, submission *sgml.Submission, hashFunc string) error {
	for i, content := range submission.Documents {
		digest, err := hashDocument(hashFunc, content)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", source, i, digest)
	}
	return nil
}

// hashDocument hashes one document payload with the named function.
func hashDocument(hashFunc string, content []byte) (string, error) {
	if strings.EqualFold(hashFunc, "blake3") {
		sum := blake3.Sum256(content)
		return hex.EncodeToString(sum[:]), nil
	}
	registered, ok := hashFunctions[strings.ToUpper(hashFunc)]
	if !ok {
		return "", fmt.Errorf("unknown hash function %q", hashFunc)
	}
	hasher := registered.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

/******************************************************************************

benchmark parses every .sgml file in a directory, times each parse, and
prints a table sorted slowest first. With -o it also writes the raw TSV
report so runs can be diffed over time:

	edgar benchmark -o results.tsv filings/

******************************************************************************/

type benchmarkResult struct {
	name    string
	seconds float64
	status  string
}

func benchmarkCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("benchmark needs exactly one directory argument")
	}
	dir := c.Args().First()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var results []benchmarkResult
	var totalSeconds float64
	successes := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sgml" {
			continue
		}
		start := time.Now()
		_, parseErr := sgml.ParseFile(filepath.Join(dir, entry.Name()))
		seconds := time.Since(start).Seconds()

		status := "success"
		if parseErr != nil {
			status = fmt.Sprintf("error: %v", parseErr)
		} else {
			successes++
		}
		results = append(results, benchmarkResult{entry.Name(), seconds, status})
		totalSeconds += seconds
	}

	slices.SortFunc(results, func(a, b benchmarkResult) int {
		switch {
		case a.seconds > b.seconds:
			return -1
		case a.seconds < b.seconds:
			return 1
		}
		return strings.Compare(a.name, b.name)
	})

	table := tablewriter.NewWriter(c.App.Writer)
	table.SetHeader([]string{"File", "Seconds", "Status"})
	table.SetAutoFormatHeaders(false)
	for _, result := range results {
		table.Append([]string{result.name, fmt.Sprintf("%.6f", result.seconds), result.status})
	}
	table.Render()

	average := 0.0
	if len(results) > 0 {
		average = totalSeconds / float64(len(results))
	}
	fmt.Fprintf(c.App.Writer, "Total files: %d\nSuccessful files: %d\nTotal time: %.6f seconds\nAverage time: %.6f seconds\n",
		len(results), successes, totalSeconds, average)

	if output := c.String("o"); output != "" {
		return writeBenchmarkTSV(output, results, totalSeconds, successes)
	}
	return nil
}

// writeBenchmarkTSV writes the report in the historical tab-separated layout.
func writeBenchmarkTSV(path string, results []benchmarkResult, totalSeconds float64, successes int) error {
	var builder strings.Builder
	builder.WriteString("filename\ttime_seconds\tstatus\n")
	for _, result := range results {
		fmt.Fprintf(&builder, "%s\t%.6f\t%s\n", result.name, result.seconds, result.status)
	}
	average := 0.0
	if len(results) > 0 {
		average = totalSeconds / float64(len(results))
	}
	fmt.Fprintf(&builder, "\nTotal files: %d\n", len(results))
	fmt.Fprintf(&builder, "Successful files: %d\n", successes)
	fmt.Fprintf(&builder, "Total time: %.6f seconds\n", totalSeconds)
	fmt.Fprintf(&builder, "Average time: %.6f seconds\n", average)
	return os.WriteFile(path, []byte(builder.String()), 0644)
}

/******************************************************************************

Helper functions begin here.

******************************************************************************/

func isPipe(c *cli.Context) bool {
	info, _ := os.Stdin.Stat()
	flag := false
	if info.Mode()&os.ModeNamedPipe != 0 {
		// we have a pipe input
		flag = true
	}
	if c.App.Reader != os.Stdin {
		flag = true
	}
	return flag
}

// getMatches takes all args and gets their glob pattern matches.
func getMatches(c *cli.Context) []string {
	var matches []string
	for argIndex := 0; argIndex < c.Args().Len(); argIndex++ {
		match, _ := filepath.Glob(c.Args().Get(argIndex))
		matches = append(matches, match...)
	}
	return uniqueNonEmptyElementsOf(matches)
}

// uniqueNonEmptyElementsOf filters pattern matches for duplicates.
func uniqueNonEmptyElementsOf(s []string) []string {
	unique := make(map[string]bool, len(s))
	var us []string
	for _, elem := range s {
		if len(elem) != 0 && !unique[elem] {
			us = append(us, elem)
			unique[elem] = true
		}
	}
	return us
}
