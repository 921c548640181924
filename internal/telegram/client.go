// Package telegram announces price scheduler events via the Telegram Bot
// API: tomorrow's series arriving, fetch failures, and recoveries.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"homedash/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	priceZone      *time.Location
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, priceZone *time.Location, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		priceZone:      priceZone,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when ctx
// is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// NotifyTomorrow announces that the day-ahead series for day is available.
func (c *Client) NotifyTomorrow(series models.PriceSeries, day time.Time) error {
	return c.sendMarkdownV2(c.formatTomorrow(series, day))
}

// NotifyError sends a fetch error notification. Call this only on the first
// occurrence of a consecutive error sequence.
func (c *Client) NotifyError(fetchErr error) error {
	text := fmt.Sprintf("⚠️ *Price fetch error*\n`%s`", escapeMarkdownV2(fetchErr.Error()))
	return c.sendMarkdownV2(text)
}

// NotifyRecovery sends a recovery notification after consecutive failures.
func (c *Client) NotifyRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Price fetching recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// formatTomorrow summarizes tomorrow's prices: average, and the cheapest and
// most expensive hours of the day.
func (c *Client) formatTomorrow(series models.PriceSeries, day time.Time) string {
	y, m, d := day.In(c.priceZone).Date()

	var sum, min, max float64
	var minAt, maxAt time.Time
	var n int
	for _, p := range series {
		py, pm, pd := p.DateTime.In(c.priceZone).Date()
		if py != y || pm != m || pd != d {
			continue
		}
		if n == 0 || p.Price < min {
			min = p.Price
			minAt = p.DateTime
		}
		if n == 0 || p.Price > max {
			max = p.Price
			maxAt = p.DateTime
		}
		sum += p.Price
		n++
	}

	dateStr := escapeMarkdownV2(day.In(c.priceZone).Format("Mon 2 Jan"))
	if n == 0 {
		return fmt.Sprintf("⚡ *Day\\-ahead prices for %s*\n\nNo data\\.", dateStr)
	}

	message := fmt.Sprintf("⚡ *Day\\-ahead prices for %s*\n\n", dateStr)
	message += fmt.Sprintf("📊 Average: %s c/kWh\n", escapeMarkdownV2(fmt.Sprintf("%.2f", sum/float64(n))))
	message += fmt.Sprintf("🟢 Cheapest: %s c/kWh at %s\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", min)),
		escapeMarkdownV2(minAt.In(c.priceZone).Format("15:04")))
	message += fmt.Sprintf("🔴 Most expensive: %s c/kWh at %s\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", max)),
		escapeMarkdownV2(maxAt.In(c.priceZone).Format("15:04")))
	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
