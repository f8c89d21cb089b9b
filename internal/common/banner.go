package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved runtime settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("Pasar", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Type).
		Str("schedule", config.Scheduler.Schedule).
		Strs("watchlist", config.Scheduler.Watchlist).
		Bool("sentiment_model", config.Sentiment.Enabled && config.Sentiment.APIToken != "").
		Msg("Pasar market intelligence service")
}
