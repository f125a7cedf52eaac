package flow

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

// ErrUpstream marks a records file in which the telemetry collaborator
// reported a failed query
var ErrUpstream = errors.New("telemetry query failed")

// maxLineSize bounds a single JSON line
const maxLineSize = 4 * 1024 * 1024

// queryEnvelope is the shape of a saved telemetry query result
type queryEnvelope struct {
	Success *bool       `json:"success"`
	Error   string      `json:"error"`
	Results []RawRecord `json:"results"`
}

// ReadRecords loads raw flow rows from a file. Files ending in .jsonl,
// .ndjson or .log hold one JSON object per line; any other file holds a
// JSON array of objects or a query envelope with a "results" array. A
// trailing .gz is decompressed. At most limit rows are returned when
// limit is positive.
func ReadRecords(path string, limit int, logger *log.Logger) ([]RawRecord, error) {
	fileHandle, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fileHandle.Close()

	var reader io.Reader = fileHandle
	name := path
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(fileHandle)
		if err != nil {
			return nil, fmt.Errorf("could not open gzip stream %s: %w", path, err)
		}
		defer gzipReader.Close()
		reader = gzipReader
		name = strings.TrimSuffix(name, ".gz")
	}

	var records []RawRecord
	if strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".ndjson") || strings.HasSuffix(name, ".log") {
		records, err = readJSONLines(reader, limit, logger)
	} else {
		records, err = readJSONDocument(reader)
	}
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		logger.WithFields(log.Fields{
			"path":  path,
			"total": len(records),
			"limit": limit,
		}).Warn("Truncating flow records to the batch limit")
		records = records[:limit]
	}
	return records, nil
}

// readJSONDocument reads a JSON array or query envelope
func readJSONDocument(reader io.Reader) ([]RawRecord, error) {
	contents, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	contents = bytes.TrimSpace(contents)
	if len(contents) == 0 {
		return nil, nil
	}

	if contents[0] == '[' {
		var records []RawRecord
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(contents, &records)
		if err != nil {
			return nil, fmt.Errorf("could not parse flow records: %w", err)
		}
		return records, nil
	}

	var envelope queryEnvelope
	err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(contents, &envelope)
	if err != nil {
		return nil, fmt.Errorf("could not parse flow records: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, envelope.Error)
	}
	return envelope.Results, nil
}

// readJSONLines reads one JSON object per line, skipping lines which
// cannot be parsed
func readJSONLines(reader io.Reader, limit int, logger *log.Logger) ([]RawRecord, error) {
	var records []RawRecord
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record RawRecord
		err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(line, &record)
		if err != nil {
			logger.WithFields(log.Fields{
				"error": err.Error(),
				"line":  lineNumber,
			}).Error("Encountered unparsable JSON in flow records")
			continue
		}
		records = append(records, record)

		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, scanner.Err()
}
