package mail

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Attachment is a file payload carried by a message. The bytes are read
// fully into memory once per run and shared read-only across recipients.
type Attachment struct {
	Name string
	Data []byte
}

// Message is a rendered email for a single recipient.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// LoadAttachments reads the given files into memory. A path that does not
// exist is skipped with a warning so a typo never aborts a batch; any other
// read failure is returned.
func LoadAttachments(paths []string, logger *zap.SugaredLogger) ([]Attachment, error) {
	attachments := make([]Attachment, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warnw("Attachment not found, skipping", "path", path)
				continue
			}
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		attachments = append(attachments, Attachment{Name: filepath.Base(path), Data: data})
		logger.Infow("Attachment loaded", "name", filepath.Base(path), "bytes", len(data))
	}
	return attachments, nil
}
