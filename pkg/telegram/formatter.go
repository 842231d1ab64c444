package telegram

import (
	"fmt"
	"strings"
	"time"

	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/entity"
)

// FormatMarketReport renders a report as Telegram Markdown: price change,
// momentum, verdict and the recent-news list.
func FormatMarketReport(report *dto.Report, shortWindow, longWindow int) string {
	result := report.TrendResult

	priceEmoji := "📈"
	if result.ChangePct < 0 {
		priceEmoji = "📉"
	}
	trendEmoji := trendEmojiFor(result.Verdict)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Market Analysis — %s*\n\n", result.Symbol))
	b.WriteString(fmt.Sprintf("*Price Change* %s\n", priceEmoji))
	b.WriteString(fmt.Sprintf("Current Price: `$%.2f`\n", result.CurrentPrice))
	b.WriteString(fmt.Sprintf("Change: `%+.2f%%`\n\n", result.ChangePct))
	b.WriteString("*Market Momentum*\n")
	b.WriteString(fmt.Sprintf("Short MA (%dd): `$%.2f`\n", shortWindow, result.ShortMA))
	b.WriteString(fmt.Sprintf("Long MA (%dd): `$%.2f`\n", longWindow, result.LongMA))
	b.WriteString(fmt.Sprintf("Trend: _%s %s_\n", verdictLabel(result.Verdict), trendEmoji))

	if len(report.News) == 0 {
		b.WriteString("\n⚠️ No relevant news articles found.\n")
	} else {
		b.WriteString("\n*Recent Market News*\n")
		for _, article := range report.News {
			b.WriteString(formatArticle(article))
		}
	}

	if report.Degraded {
		b.WriteString("\n⚠️ _Report generated in degraded mode; news or history may be incomplete._\n")
	}

	return b.String()
}

func formatArticle(article entity.NewsArticle) string {
	line := fmt.Sprintf("📰 [%s](%s)\n📅 %s", article.Title, article.URL,
		article.PublishedAt.Format(time.DateOnly))
	if article.Source != "" {
		line += fmt.Sprintf(" — %s", article.Source)
	}
	return line + "\n"
}

func verdictLabel(verdict entity.TrendVerdict) string {
	switch verdict {
	case entity.VerdictBullish:
		return "Bullish"
	case entity.VerdictBearish:
		return "Bearish"
	default:
		return "Neutral"
	}
}

func trendEmojiFor(verdict entity.TrendVerdict) string {
	switch verdict {
	case entity.VerdictBullish:
		return "📈"
	case entity.VerdictBearish:
		return "📉"
	default:
		return "➖"
	}
}
