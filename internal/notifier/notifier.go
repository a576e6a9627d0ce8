package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Interface 通知接口：接收格式化完成的预警文本，尽力送达
type Interface interface {
	Send(text string) error
}

// ConsoleNotifier 控制台通知器
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (cn *ConsoleNotifier) Send(text string) error {
	// 生成漂亮的控制台输出
	width := 60
	border := "╔" + strings.Repeat("═", width) + "╗"
	bottomBorder := "╚" + strings.Repeat("═", width) + "╝"

	fmt.Println()
	fmt.Println(border)
	fmt.Printf("║ %s%s ║\n", text, strings.Repeat(" ", safePadding(text, width)))
	fmt.Println(bottomBorder)
	fmt.Println()
	return nil
}

// safePadding 安全地计算填充空格数量，避免负数
func safePadding(content string, totalWidth int) int {
	// 使用utf8.RuneCountInString计算实际显示字符数，而不是字节数
	runeCount := utf8.RuneCountInString(content)
	padding := totalWidth - runeCount - 4 // 4是边框字符数
	if padding < 0 {
		padding = 0
	}
	return padding
}

// TelegramNotifier Telegram Bot通知器
type TelegramNotifier struct {
	botToken   string
	chatID     string
	httpClient *http.Client
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramNotifier 创建Telegram通知器，未配置token时降级为控制台输出
func NewTelegramNotifier(botToken, chatID string) Interface {
	if botToken == "" || chatID == "" {
		fmt.Println("🔧 未配置Telegram Bot Token，使用控制台输出模式")
		return NewConsoleNotifier()
	}

	fmt.Println("✅ 已配置Telegram通知服务")
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (tn *TelegramNotifier) Send(text string) error {
	reqData := map[string]string{
		"chat_id": tn.chatID,
		"text":    text,
	}
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("序列化请求数据失败: %v", err)
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", tn.botToken)
	resp, err := tn.httpClient.Post(apiURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %v", err)
	}
	defer resp.Body.Close()

	var tgResp telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&tgResp); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if !tgResp.OK {
		return fmt.Errorf("Telegram API错误: %s", tgResp.Description)
	}
	return nil
}

// DiscordNotifier Discord Webhook通知器
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordNotifier 创建Discord通知器，未配置webhook时降级为控制台输出
func NewDiscordNotifier(webhookURL string) Interface {
	if webhookURL == "" {
		fmt.Println("🔧 未配置Discord Webhook，使用控制台输出模式")
		return NewConsoleNotifier()
	}
	if _, err := url.Parse(webhookURL); err != nil {
		fmt.Printf("⚠️ Discord Webhook地址格式错误: %v，使用控制台输出模式\n", err)
		return NewConsoleNotifier()
	}

	fmt.Println("✅ 已配置Discord通知服务")
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (dn *DiscordNotifier) Send(text string) error {
	jsonData, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("序列化请求数据失败: %v", err)
	}

	resp, err := dn.httpClient.Post(dn.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %v", err)
	}
	defer resp.Body.Close()

	// Discord Webhook成功时返回204
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("Discord Webhook错误: %d", resp.StatusCode)
	}
	return nil
}
