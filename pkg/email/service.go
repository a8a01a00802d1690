package email

import "log/slog"

// GlobalEmailService stays nil when no API key is configured; callers skip notifications then.
var GlobalEmailService *EmailService

func InitEmailService(apiKey, from string, log *slog.Logger) error {
	service, err := NewEmailService(apiKey, from, log)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
