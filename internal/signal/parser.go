// Package signal extracts trading signals from free-form listing
// announcement text. The chat transport feeding messages in is an external
// collaborator; this package only owns the text-to-symbol contract.
package signal

import (
	"regexp"
	"strings"
)

// symbolPatterns match ticker mentions in listing announcements, most
// specific first. The first submatch is the coin ticker.
var symbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$([A-Z]{2,10})\s+listed\s+on\s+binance\s+futures`),
	regexp.MustCompile(`(?i)\b([A-Z]{2,10})\s+listed\s+on\s+binance\s+futures`),
	regexp.MustCompile(`(?i)\$([A-Z]{2,10})\s+.*binance.*futures`),
	regexp.MustCompile(`(?i)\b([A-Z]{2,10})\s+.*binance.*futures`),
}

// dollarTagPattern matches bare $COIN mentions anywhere in a message.
var dollarTagPattern = regexp.MustCompile(`\$([A-Za-z0-9_]+)`)

// quoteAsset is the trading-pair quote appended to extracted tickers.
const quoteAsset = "USDT"

// ExtractSymbol extracts the trading-pair symbol from a listing announcement.
// The message must mention both "binance" and "futures" (case-insensitive)
// and contain a ticker matched by one of the known announcement shapes.
// Returns the normalized pair symbol (e.g. "LAUSDT") and whether a signal
// was found.
func ExtractSymbol(message string) (string, bool) {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "binance") || !strings.Contains(lower, "futures") {
		return "", false
	}

	for _, pattern := range symbolPatterns {
		match := pattern.FindStringSubmatch(message)
		if len(match) > 1 {
			return strings.ToUpper(match[1]) + quoteAsset, true
		}
	}

	return "", false
}

// ExtractCoinTags returns every $COIN ticker mentioned in the message,
// uppercased, in order of appearance. Used by offline tooling that replays
// recorded announcement feeds.
func ExtractCoinTags(message string) []string {
	matches := dollarTagPattern.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return nil
	}

	coins := make([]string, 0, len(matches))
	for _, m := range matches {
		coins = append(coins, strings.ToUpper(m[1]))
	}

	return coins
}
