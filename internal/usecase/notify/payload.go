package notify

import (
	"strings"

	"wikinotify/internal/domain/entity"
)

// Build assembles the payload for one formatted message.
//
// Double quotes in text are replaced with single quotes, which keeps the
// JSON document in the webhook body valid and is what channel readers are
// used to seeing. Sender name and channel come from cfg unchanged.
func Build(text string, severity entity.Severity, cfg entity.TransportConfig) entity.Payload {
	return entity.Payload{
		Text:       strings.ReplaceAll(text, `"`, "'"),
		SenderName: cfg.SenderName,
		Channel:    cfg.Channel,
		Severity:   severity,
	}
}
