package db

import (
	"encoding/csv"
	"os"
	"strings"

	"gorm.io/gorm"
)

type wordRecord struct {
	Text string
}

// LoadWordLibrary reads words from a CSV and upserts them into the words table.
// The first row is a header; the word is taken from the last column.
func LoadWordLibrary(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records, err := readWords(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		entry := Word{Text: record.Text}
		if err := conn.FirstOrCreate(&entry, Word{Text: entry.Text}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func readWords(path string) ([]wordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []wordRecord
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		text := strings.ToLower(strings.TrimSpace(row[len(row)-1]))
		if text == "" {
			continue
		}
		records = append(records, wordRecord{Text: text})
	}
	return records, nil
}
