package service

import (
	"context"
	"strings"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const tgMessageLimit = 2000

// TelegramAlert forwards alerts to the configured admin chats.
type TelegramAlert struct {
	bot     *telego.Bot
	chatIds []int64
}

func NewTelegramAlert(cfg config.TelegramConfig) (*TelegramAlert, error) {
	if !cfg.Enabled() {
		return nil, common.NewError("telegram bot token or chat ids not configured")
	}
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &TelegramAlert{bot: bot, chatIds: cfg.ChatIDs}, nil
}

// Alert sends text to every admin chat. Delivery continues past a failing
// chat; the last error is returned.
func (t *TelegramAlert) Alert(ctx context.Context, text string) error {
	if text == "" {
		logger.Info("[tgbot] message is empty!")
		return nil
	}
	var lastErr error
	for _, chatId := range t.chatIds {
		for _, part := range splitMessage(text, tgMessageLimit) {
			if _, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(chatId), part)); err != nil {
				logger.Warningf("[tgbot] send to %d failed: %v", chatId, err)
				lastErr = err
				break
			}
		}
	}
	return lastErr
}

// splitMessage pages msg on blank lines so every part stays under limit
// bytes where possible.
func splitMessage(msg string, limit int) []string {
	if len(msg) <= limit {
		return []string{msg}
	}
	var parts []string
	for _, chunk := range strings.Split(msg, "\n\n") {
		last := len(parts) - 1
		if last < 0 || len(parts[last])+len(chunk)+2 > limit {
			parts = append(parts, chunk)
		} else {
			parts[last] += "\n\n" + chunk
		}
	}
	return parts
}
