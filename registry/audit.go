package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadAudit returns every retrain log entry, oldest first. A missing log
// is an empty history.
func (s *FileStore) ReadAudit() ([]AuditEntry, error) {
	file, err := os.Open(s.auditPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("retrain log line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
