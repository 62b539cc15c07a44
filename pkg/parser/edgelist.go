// Package parser reads and writes interaction edge lists on disk.
//
// The text format is one pair per line, "proteinA proteinB", separated by
// whitespace. Blank lines and lines starting with '#' are skipped; extra columns
// (e.g. a score) are ignored. A file whose first non-space byte is '[' is read
// as a JSON array of {"proteinA", "proteinB"} objects.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

// LineError reports a line that does not hold a protein pair
type LineError struct {
	Line int
	Text string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: expected two protein symbols, got %q", e.Line, e.Text)
}

// ReadEdgeListFile parses an edge list file
func ReadEdgeListFile(filename string) (models.InteractionSet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	edges, err := ReadEdgeList(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return edges, nil
}

// ReadEdgeList parses a text or JSON edge list. The result is never nil.
func ReadEdgeList(r io.Reader) (models.InteractionSet, error) {
	br := bufio.NewReader(r)
	if isJSON(br) {
		var edges models.InteractionSet
		if err := json.NewDecoder(br).Decode(&edges); err != nil {
			return models.InteractionSet{}, fmt.Errorf("decoding JSON edge list: %w", err)
		}
		for i, e := range edges {
			if e.ProteinA == "" || e.ProteinB == "" {
				return models.InteractionSet{}, fmt.Errorf("record %d: empty protein symbol", i)
			}
		}
		if edges == nil {
			edges = models.InteractionSet{}
		}
		return edges, nil
	}

	edges := models.InteractionSet{}
	scanner := bufio.NewScanner(br)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return models.InteractionSet{}, &LineError{Line: lineNo, Text: line}
		}
		edges = append(edges, models.InteractionEdge{ProteinA: parts[0], ProteinB: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return models.InteractionSet{}, err
	}
	return edges, nil
}

// isJSON peeks past leading whitespace for an opening bracket
func isJSON(br *bufio.Reader) bool {
	for n := 1; ; n++ {
		peek, err := br.Peek(n)
		if len(peek) < n || err != nil {
			return false
		}
		trimmed := bytes.TrimLeft(peek, " \t\r\n")
		if len(trimmed) > 0 {
			return trimmed[0] == '['
		}
	}
}

// WriteEdgeList writes edges in the text format, one "proteinA proteinB" per line
func WriteEdgeList(w io.Writer, edges models.InteractionSet) error {
	bw := bufio.NewWriter(w)
	for _, edge := range edges {
		if _, err := fmt.Fprintf(bw, "%s %s\n", edge.ProteinA, edge.ProteinB); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveEdgeListFile saves edges to a file in "proteinA proteinB" format
func SaveEdgeListFile(edges models.InteractionSet, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := WriteEdgeList(file, edges); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
