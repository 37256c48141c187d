// Package report wires the cucumber-json writer (formatter/cucumber) to a
// file on disk, replacing the teacher's own parseFeatures/GenerateJson pair
// (which re-parsed .feature files directly into the JSON shape) now that
// the JSON report is built incrementally from the run's event stream
// instead.
package report

import (
	"fmt"
	"os"

	"github.com/anuragh27crony/gobdd/formatter/cucumber"
	"github.com/anuragh27crony/gobdd/writer"
)

// fileWriter closes the backing *os.File after the wrapped writer has
// finished encoding its report into it.
type fileWriter struct {
	writer.Writer
	f *os.File
}

func (fw *fileWriter) Close() error {
	err := fw.Writer.Close()
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// JSONFile opens path for writing and returns a writer.Writer that encodes
// the cucumber-json report into it on Close.
func JSONFile(path string) (writer.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: cannot create %s: %w", path, err)
	}
	return &fileWriter{Writer: cucumber.NewWriter(f), f: f}, nil
}
