package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Attachment links a stored file to the name users see.
type Attachment struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
}

// UnmarshalJSON accepts both the object shape and legacy bare path strings.
// Either way the path is reduced to its base name, dropping "uploads/".
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var legacyPath string
	if err := json.Unmarshal(data, &legacyPath); err == nil {
		*a = AttachmentFromLegacyPath(legacyPath)
		return nil
	}

	type plain struct {
		Path            string `json:"path"`
		DisplayName     string `json:"display_name"`
		DisplayNameJSON string `json:"displayName"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("attachment: %w", err)
	}

	legacy := AttachmentFromLegacyPath(p.Path)
	a.Path = legacy.Path
	a.DisplayName = p.DisplayName
	if a.DisplayName == "" {
		a.DisplayName = p.DisplayNameJSON
	}
	if a.DisplayName == "" {
		a.DisplayName = legacy.DisplayName
	}
	return nil
}

// AttachmentFromLegacyPath builds an attachment from a bare stored path such as
// "uploads/1700000000000-report.pdf". The display name drops the directory and
// the upload timestamp prefix.
func AttachmentFromLegacyPath(storedPath string) Attachment {
	base := path.Base(strings.ReplaceAll(storedPath, "\\", "/"))
	display := base
	if prefix, rest, found := strings.Cut(base, "-"); found && rest != "" && isDigits(prefix) {
		display = rest
	}
	return Attachment{Path: base, DisplayName: display}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Attachments is stored as a JSON array column.
type Attachments []Attachment

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("attachments: unsupported column type %T", value)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		*a = Attachments{}
		return nil
	}

	var out Attachments
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*a = out
	return nil
}
