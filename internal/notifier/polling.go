package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called for every text message received; user is the
// sender's username. A non-empty reply is sent back to the chat.
type CommandHandler func(ctx context.Context, user, command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		From *struct {
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
		} `json:"from"`
		Chat struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"chat"`
	} `json:"message"`
}

// fromConfiguredChat reports whether u was sent in the chat replies go to.
func (t *TelegramNotifier) fromConfiguredChat(u *telegramUpdate) bool {
	chat := u.Message.Chat
	if strconv.FormatInt(chat.ID, 10) == t.ChatID {
		return true
	}
	return chat.Username != "" && "@"+chat.Username == t.ChatID
}

type updatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

// StartPolling long-polls for messages. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("telegram polling stopped")
			return
		default:
		}

		updates, err := t.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("polling request failed", slog.String("err", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if !t.fromConfiguredChat(&update) {
				slog.Warn("ignoring message from other chat", slog.Int64("chatID", update.Message.Chat.ID))
				continue
			}
			user := ""
			if from := update.Message.From; from != nil {
				user = from.Username
				if user == "" {
					user = from.FirstName
				}
			}
			text := strings.TrimSpace(update.Message.Text)
			slog.Info("received command", slog.String("user", user), slog.String("text", text))

			reply := handler(ctx, user, text)
			if reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					slog.Error("send reply failed", slog.String("err", err.Error()))
				}
			}
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, offset int) ([]telegramUpdate, error) {
	var result updatesResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":  strconv.Itoa(offset),
			"timeout": "30",
		}).
		SetResult(&result).
		Get(t.methodURL("getUpdates"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("getUpdates: status %d", resp.StatusCode())
	}
	return result.Result, nil
}
