package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
	"okx-chandelier-sentry/pkg/types"
)

// Load 加载配置
func Load() (*types.Config, error) {
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 设置默认值
	setDefaults()

	// 读取环境变量
	viper.AutomaticEnv()

	// 优先尝试读取本地配置文件
	viper.SetConfigName("config.local")
	if err := viper.ReadInConfig(); err != nil {
		// 如果本地配置文件不存在，尝试读取默认配置文件
		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, err
			}
		}
	}

	var config types.Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 未配置监控流时使用内置默认列表
	if len(config.Strategy.Chandelier.Streams) == 0 {
		config.Strategy.Chandelier.Streams = DefaultStreams()
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file_path", "logs")
	viper.SetDefault("log.max_size", 200)
	viper.SetDefault("log.max_age", 30)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.compress", false)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")
	viper.SetDefault("discord.webhook_url", "")
	viper.SetDefault("alert.timezone", "Asia/Shanghai")
	viper.SetDefault("network.proxy", "")
	viper.SetDefault("network.timeout", 30*time.Second)
	viper.SetDefault("strategy.chandelier.enabled", true)
	viper.SetDefault("database.mysql.host", "")
	viper.SetDefault("database.mysql.port", 3306)
	viper.SetDefault("database.mysql.max_idle_conns", 5)
	viper.SetDefault("database.mysql.max_open_conns", 20)
}

// DefaultStreams 默认监控流列表（ETH/BTC主流周期组合）
func DefaultStreams() []types.StreamConfig {
	return []types.StreamConfig{
		{Symbol: "ETH-USDT", Interval: "5m", AtrMultiplier: 4.0, HeikinAshi: true},
		{Symbol: "ETH-USDT", Interval: "15m", AtrMultiplier: 3.0, HeikinAshi: false},
		{Symbol: "ETH-USDT", Interval: "1H", AtrMultiplier: 3.0, HeikinAshi: false},
		{Symbol: "ETH-USDT", Interval: "4H", AtrMultiplier: 4.0, HeikinAshi: false},
		{Symbol: "ETH-USDT", Interval: "4H", AtrMultiplier: 4.0, HeikinAshi: true},
		{Symbol: "ETH-USDT", Interval: "1D", AtrMultiplier: 4.0, HeikinAshi: false},
		{Symbol: "ETH-USDT", Interval: "1D", AtrMultiplier: 4.0, HeikinAshi: true},
		{Symbol: "BTC-USDT", Interval: "4H", AtrMultiplier: 4.0, HeikinAshi: false},
		{Symbol: "BTC-USDT", Interval: "4H", AtrMultiplier: 4.0, HeikinAshi: true},
		{Symbol: "BTC-USDT", Interval: "1D", AtrMultiplier: 4.0, HeikinAshi: false},
		{Symbol: "BTC-USDT", Interval: "1D", AtrMultiplier: 4.0, HeikinAshi: true},
	}
}
