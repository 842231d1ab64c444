package telegrambot

import (
	"context"
	"errors"
	"time"

	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/analyzer/service"
	"etf-trend-analyzer/pkg/logger"
	"etf-trend-analyzer/pkg/telegram"
	"etf-trend-analyzer/pkg/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const commandTimeout = 60 * time.Second

// Bot serves on-demand analysis over Telegram commands. Only chats on the
// static allow-list are answered; everyone else is silently skipped.
type Bot struct {
	cfg      *config.Config
	log      *logger.Logger
	api      *tgbotapi.BotAPI
	analyzer service.MarketAnalyzerService
	allowed  map[int64]struct{}
}

// New creates a new command bot.
func New(cfg *config.Config, log *logger.Logger, analyzer service.MarketAnalyzerService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]struct{}, len(cfg.Telegram.AllowedChatIDs))
	for _, id := range cfg.Telegram.AllowedChatIDs {
		allowed[id] = struct{}{}
	}

	return &Bot{
		cfg:      cfg,
		log:      log,
		api:      api,
		analyzer: analyzer,
		allowed:  allowed,
	}, nil
}

// Start begins long-polling for commands until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	b.log.Info("Telegram bot started", logger.StringField("username", b.api.Self.UserName))

	utils.GoSafe(func() {
		for {
			select {
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				b.log.Info("Telegram bot stopped")
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.handleUpdate(ctx, update)
			}
		}
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID
	if _, ok := b.allowed[chatID]; !ok {
		b.log.Warn("Ignoring command from disallowed chat",
			logger.Field("chat_id", chatID),
			logger.StringField("command", update.Message.Command()))
		return
	}

	switch update.Message.Command() {
	case "market":
		b.handleMarket(ctx, chatID)
	case "help":
		b.reply(chatID, "Available commands:\n/market — current market analysis\n/help — show this message")
	default:
		b.reply(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleMarket(ctx context.Context, chatID int64) {
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	report, err := b.analyzer.Analyze(runCtx)
	if err != nil {
		b.log.Error("Market command failed", logger.ErrorField(err))
		if errors.Is(err, dto.ErrPriceUnavailable) {
			b.reply(chatID, "❌ Failed to fetch market data.")
		} else {
			b.reply(chatID, "❌ Failed to generate market report.")
		}
		return
	}

	b.reply(chatID, telegram.FormatMarketReport(report, b.cfg.Analyzer.ShortWindow, b.cfg.Analyzer.LongWindow))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("Failed to send Telegram reply", logger.Field("chat_id", chatID), logger.ErrorField(err))
	}
}
