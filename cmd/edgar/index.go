package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v2"
	"lukechampine.com/blake3"

	"github.com/bebop/edgar/sgml"
)

/******************************************************************************

index catalogs submissions into a local sqlite database:

	edgar index -d filings.db *.sgml

The database carries one row per filing and one row per embedded document,
with the document's blake3 hash so a directory of filings can be deduplicated
or audited without re-parsing anything. Each document row points at its
filing row through the filing id. The connection does not turn on sqlite's
foreign_keys pragma, so the REFERENCES clause is not enforced by the database.

******************************************************************************/

const indexSchema = `
CREATE TABLE IF NOT EXISTS filing (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	accession TEXT,
	submission_type TEXT,
	source TEXT NOT NULL,
	document_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS document (
	filing INTEGER NOT NULL REFERENCES filing(id),
	sequence INTEGER NOT NULL,
	doc_type TEXT,
	filename TEXT,
	size INTEGER NOT NULL,
	blake3 TEXT NOT NULL
);
`

func indexCommand(c *cli.Context) error {
	matches := getMatches(c)
	if len(matches) == 0 {
		return errors.New("index needs at least one .sgml input file")
	}

	db, err := sqlx.Connect("sqlite3", c.String("d"))
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(indexSchema); err != nil {
		return err
	}

	for _, match := range matches {
		submission, err := sgml.ParseFile(match)
		if err != nil {
			return err
		}
		if err := indexSubmission(db, match, submission); err != nil {
			return fmt.Errorf("indexing %s: %w", match, err)
		}
		fmt.Fprintf(c.App.Writer, "indexed %s (%d documents)\n", match, len(submission.Documents))
	}
	return nil
}

// indexSubmission inserts one filing and its documents in a transaction so a
// failed filing never leaves half a catalog entry behind.
func indexSubmission(db *sqlx.DB, source string, submission *sgml.Submission) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}

	result, err := tx.Exec(
		`INSERT INTO filing(accession, submission_type, source, document_count) VALUES (?, ?, ?, ?)`,
		accessionNumber(submission.Metadata), submissionForm(submission.Metadata),
		filepath.Base(source), len(submission.Documents),
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	filingID, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}

	documentDicts := documentMetadata(submission)
	for i, content := range submission.Documents {
		var docType, filename string
		if i < len(documentDicts) {
			docType, _ = documentDicts[i].Text("type")
			filename, _ = documentDicts[i].Text("filename")
		}
		sum := blake3.Sum256(content)
		if _, err := tx.Exec(
			`INSERT INTO document(filing, sequence, doc_type, filename, size, blake3) VALUES (?, ?, ?, ?, ?, ?)`,
			filingID, i, docType, filename, len(content), hex.EncodeToString(sum[:]),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// accessionNumber digs the accession number out of a header tree. The dashed
// dialect spells the key accession-number, the tab dialects accession number.
func accessionNumber(metadata *sgml.Dict) string {
	for _, key := range []string{"accession-number", "accession number"} {
		if value, ok := metadata.Text(key); ok {
			return value
		}
	}
	return ""
}

// submissionForm returns the filing's form type, wherever the dialect put it.
func submissionForm(metadata *sgml.Dict) string {
	for _, key := range []string{"type", "conformed submission type"} {
		if value, ok := metadata.Text(key); ok {
			return value
		}
	}
	// tab-default nests the form under filer / filing values.
	if filer, ok := metadata.Get("filer"); ok {
		if dict, ok := filer.(*sgml.Dict); ok {
			if values, ok := dict.Get("filing values"); ok {
				if valuesDict, ok := values.(*sgml.Dict); ok {
					if form, ok := valuesDict.Text("form type"); ok {
						return form
					}
				}
			}
		}
	}
	return ""
}
