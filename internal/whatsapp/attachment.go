package whatsapp

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
)

// EncodeAttachments reads every uploaded file and produces inline data-URI
// attachments of the given kind. An unreadable file fails the whole batch;
// no attachment is silently substituted.
func EncodeAttachments(files []UploadedFile, kind conversation.AttachmentKind) ([]conversation.Attachment, error) {
	attachments := make([]conversation.Attachment, 0, len(files))
	for _, file := range files {
		uri, err := DataURI(file)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, conversation.Attachment{Kind: kind, URL: uri})
	}
	return attachments, nil
}

// DataURI reads the full file content and embeds it as
// "data:<mime>;base64,<content>". The MIME type is sniffed from the content.
func DataURI(file UploadedFile) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fileLabel(file), err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fileLabel(file), err)
	}

	mime := http.DetectContentType(content)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content), nil
}

func fileLabel(file UploadedFile) string {
	if file.Name != "" {
		return file.Name
	}
	if file.Path != "" {
		return file.Path
	}
	return "upload"
}
