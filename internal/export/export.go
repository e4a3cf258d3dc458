// Package export renders anonymized candidate records for persistence
// outside the conversation. PII fields are one-way hashed before anything
// leaves the process; the engine itself never performs this.
package export

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/talentscout/talentbot/internal/conversation"
)

// piiFields are hashed before export.
var piiFields = map[conversation.Field]bool{
	conversation.FieldEmail:    true,
	conversation.FieldPhone:    true,
	conversation.FieldFullName: true,
}

const privacyNotice = "PII fields have been hashed for GDPR compliance"

// Record is the exported candidate snapshot.
type Record struct {
	ExportDate    string            `json:"export_date"`
	SessionID     string            `json:"session_id"`
	Candidate     map[string]string `json:"candidate"`
	PrivacyNotice string            `json:"privacy_notice"`
}

// NewRecord builds an anonymized record from the collected profile fields.
func NewRecord(profile *conversation.Profile) Record {
	return Record{
		ExportDate:    time.Now().Format(time.RFC3339),
		SessionID:     uuid.NewString(),
		Candidate:     Anonymize(profile),
		PrivacyNotice: privacyNotice,
	}
}

// Anonymize returns the filled profile fields with PII values replaced by a
// truncated sha256 digest.
func Anonymize(profile *conversation.Profile) map[string]string {
	out := make(map[string]string)
	for field, value := range profile.Filled() {
		if piiFields[field] {
			value = hashValue(value)
		}
		out[string(field)] = value
	}
	return out
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)[:12] + "..."
}

// Write serializes the record to an indented JSON file under dir and
// returns the file path.
func Write(dir string, record Record) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export record: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("candidate-%s.json", record.SessionID))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	return path, nil
}
