package announce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/SevereCloud/vksdk/v2/api/params"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Target publishes a post to one platform.
type Target interface {
	Name() string
	Publish(ctx context.Context, post Post) error
}

// Telegram posts to a channel through the Bot API. The bot is created on
// first use since construction calls getMe.
type Telegram struct {
	token    string
	channel  string
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegram configures a channel target. channel is "@name" or a numeric
// chat ID. An empty endpoint uses the public Bot API.
func NewTelegram(token, channel, endpoint string, client *http.Client) *Telegram {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Telegram{
		token:    strings.TrimSpace(token),
		channel:  strings.TrimSpace(channel),
		endpoint: endpoint,
		client:   client,
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Publish(ctx context.Context, post Post) error {
	bot, err := t.connect()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg tgbotapi.MessageConfig
	if chatID, err := strconv.ParseInt(t.channel, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(chatID, post.TelegramText())
	} else {
		msg = tgbotapi.NewMessageToChannel(t.channel, post.TelegramText())
	}
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (t *Telegram) connect() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

// VK posts to a community wall.
type VK struct {
	groupID int
	vk      *api.VK
}

// NewVK configures a community wall target. A non-empty methodURL replaces
// the API host.
func NewVK(token string, groupID int, methodURL string, client *http.Client) *VK {
	vk := api.NewVK(strings.TrimSpace(token))
	if methodURL != "" {
		vk.MethodURL = methodURL
	}
	if client != nil {
		vk.Client = client
	}
	return &VK{groupID: groupID, vk: vk}
}

func (v *VK) Name() string { return "vk" }

func (v *VK) Publish(ctx context.Context, post Post) error {
	if v.groupID == 0 {
		return errors.New("vk: group id not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b := params.NewWallPostBuilder()
	b.OwnerID(-v.groupID)
	b.FromGroup(true)
	b.Message(post.VKText())
	if post.VideoURL != "" {
		b.Attachments(post.VideoURL)
	}
	if _, err := v.vk.WallPost(b.Params); err != nil {
		return fmt.Errorf("vk: wall post: %w", err)
	}
	return nil
}
