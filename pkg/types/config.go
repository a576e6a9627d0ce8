package types

import (
	"strconv"
	"time"
)

// Config 主配置结构
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Network  NetworkConfig  `mapstructure:"network"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志输出路径名
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件大小 单位：MB，超限后会自动切割
	MaxAge     int    `mapstructure:"max_age"`     // 日志文件存放时间 单位：天
	MaxBackups int    `mapstructure:"max_backups"` // 日志文件备份数量
	Compress   bool   `mapstructure:"compress"`    // 日志文件压缩
}

// TelegramConfig Telegram Bot配置
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"` // 个人会话为正数，频道为负数
}

// DiscordConfig Discord Webhook配置
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// AlertConfig 预警配置
type AlertConfig struct {
	Timezone string `mapstructure:"timezone"` // 预警消息中本地时间所用时区
}

// NetworkConfig 网络配置
type NetworkConfig struct {
	Proxy   string        `mapstructure:"proxy"`   // HTTP代理地址，如 http://127.0.0.1:7890
	Timeout time.Duration `mapstructure:"timeout"` // 网络超时时间
}

// StrategyConfig 策略配置总入口
type StrategyConfig struct {
	Chandelier ChandelierConfig `mapstructure:"chandelier"`
}

// ChandelierConfig Chandelier Exit策略配置
// ATR周期（22）与K线窗口（200）为固定常量，不在此配置
type ChandelierConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Streams []StreamConfig `mapstructure:"streams"`
}

// StreamConfig 单个监控流配置，生命周期内不可变
// (symbol, interval, atr_multiplier, heikin_ashi) 四元组唯一标识一个流
type StreamConfig struct {
	Symbol        string  `mapstructure:"symbol"`
	Interval      string  `mapstructure:"interval"`       // K线周期，如 15m
	AtrMultiplier float64 `mapstructure:"atr_multiplier"` // ATR倍数，如 3.0
	HeikinAshi    bool    `mapstructure:"heikin_ashi"`    // 是否使用Heikin Ashi蜡烛
}

// CandleKind K线类型标签：HA 或 J<ATR倍数>
func (sc StreamConfig) CandleKind() string {
	if sc.HeikinAshi {
		return "HA"
	}
	return "J" + strconv.Itoa(int(sc.AtrMultiplier))
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
}

// MySQLConfig MySQL配置（host为空时不启用信号落库）
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	OKXEndpoint       string        `mapstructure:"okx_endpoint"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"` // 断线后重连等待
	PingInterval      time.Duration `mapstructure:"ping_interval"`
}
