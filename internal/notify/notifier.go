package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"gopkg.in/gomail.v2"

	config "github.com/msaleh83/pagepilot/configs"
)

// Notifier fans publication outcomes out to Telegram and email. Every
// channel is optional and every delivery failure is logged and dropped;
// nothing here may influence the scheduler's outcome.
type Notifier struct {
	bot       *telego.Bot
	chatID    int64
	dialer    *gomail.Dialer
	emailUser string
}

func New(cfg config.Config) *Notifier {
	n := &Notifier{
		chatID:    cfg.TelegramChatID,
		emailUser: cfg.EmailUser,
	}

	if cfg.TelegramBotToken != "" {
		bot, err := telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(false, false))
		if err != nil {
			slog.Error("telegram bot init failed, channel disabled", "error", err)
		} else {
			n.bot = bot
			slog.Info("telegram notifications enabled")
		}
	}

	if cfg.EmailUser != "" && cfg.EmailPass != "" {
		n.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
		slog.Info("email notifications enabled", "smtp", cfg.SMTPHost)
	}

	return n
}

// Success announces a published post on every configured channel.
func (n *Notifier) Success(postID, pageName, message string) {
	postURL := "https://facebook.com/" + postID
	preview := message
	if len(preview) > 150 {
		preview = preview[:150] + "..."
	}
	text := fmt.Sprintf("Post published successfully!\n\n%s\n\nLink: %s", preview, postURL)
	if pageName != "" {
		text = fmt.Sprintf("Post published successfully to %s!\n\n%s\n\nLink: %s", pageName, preview, postURL)
	}

	n.sendTelegram(text)
	n.sendEmail("Post Published Successfully", text)
}

// Failure announces a failed publication attempt.
func (n *Notifier) Failure(cause string) {
	text := "Failed to publish post!\nError: " + cause
	n.sendTelegram(text)
	n.sendEmail("Post Publish Failed", text)
}

// Test exercises both channels so the operator can confirm wiring from the
// dashboard. Returns a per-channel report, never an error.
func (n *Notifier) Test() map[string]string {
	report := map[string]string{}

	if n.bot == nil {
		report["telegram"] = "not configured"
	} else if err := n.telegram("Test notification from pagepilot, everything is wired up!"); err != nil {
		report["telegram"] = "error: " + err.Error()
	} else {
		report["telegram"] = "ok"
	}

	if n.dialer == nil {
		report["email"] = "not configured"
	} else if err := n.email("Test from Server", "If this email arrived, the channel works!"); err != nil {
		report["email"] = "error: " + err.Error()
	} else {
		report["email"] = "ok"
	}

	return report
}

func (n *Notifier) sendTelegram(text string) {
	if n.bot == nil {
		return
	}
	if err := n.telegram(text); err != nil {
		slog.Error("telegram notification failed", "error", err)
	}
}

func (n *Notifier) telegram(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(n.chatID), text))
	return err
}

func (n *Notifier) sendEmail(subject, text string) {
	if n.dialer == nil {
		return
	}
	if err := n.email(subject, text); err != nil {
		slog.Error("email notification failed", "error", err)
	}
}

func (n *Notifier) email(subject, text string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%q <%s>", "FB Scheduler", n.emailUser))
	m.SetHeader("To", n.emailUser)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", "<p>"+strings.ReplaceAll(text, "\n", "<br>")+"</p>")
	return n.dialer.DialAndSend(m)
}
