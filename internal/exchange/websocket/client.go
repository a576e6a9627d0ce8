package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"okx-chandelier-sentry/pkg/types"
)

// DefaultEndpoint OKX公共WebSocket地址
const DefaultEndpoint = "wss://ws.okx.com:8443/ws/v5/public"

// Client 单个流独占的WebSocket客户端
// 每个 (symbol, interval) 流持有一条独立连接，断线由上层以固定间隔重建
type Client struct {
	endpoint string
	proxy    string
	symbol   string
	interval string
	config   types.WebSocketConfig

	mu   sync.Mutex // 保护conn的并发写（订阅与心跳）
	conn *websocket.Conn
}

// okxCandleResponse OKX K线频道推送
type okxCandleResponse struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Event string     `json:"event"` // subscribe / error 等事件消息
	Data  [][]string `json:"data"`
}

// okxSubscription OKX订阅消息
type okxSubscription struct {
	Op   string `json:"op"`
	Args []struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"args"`
}

// NewClient 创建WebSocket客户端
func NewClient(symbol, interval, proxy string, config types.WebSocketConfig) *Client {
	endpoint := config.OKXEndpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		proxy:    proxy,
		symbol:   symbol,
		interval: interval,
		config:   config,
	}
}

// Connect 建立连接并订阅本流的K线频道
func (c *Client) Connect() error {
	dialer := *websocket.DefaultDialer
	if c.proxy != "" {
		proxyURL, err := url.Parse(c.proxy)
		if err != nil {
			return fmt.Errorf("解析代理URL失败: %v", err)
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	conn, _, err := dialer.Dial(c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("WebSocket连接失败: %v", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.subscribe(); err != nil {
		c.Close()
		return err
	}

	zap.L().Info("✅ WebSocket连接建立成功",
		zap.String("symbol", c.symbol),
		zap.String("interval", c.interval),
		zap.String("endpoint", c.endpoint))

	return nil
}

// subscribe 发送K线频道订阅消息
func (c *Client) subscribe() error {
	subscription := okxSubscription{Op: "subscribe"}
	subscription.Args = append(subscription.Args, struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	}{
		Channel: fmt.Sprintf("candle%s", c.interval),
		InstID:  c.symbol,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("WebSocket未连接")
	}
	if err := c.conn.WriteJSON(subscription); err != nil {
		return fmt.Errorf("发送订阅消息失败: %v", err)
	}
	return nil
}

// ReadEvents 阻塞读取下一条推送，返回其中的K线事件（同一推送内按时间顺序）
// 返回非nil错误表示连接已不可用，由调用方决定是否重连；
// 订阅确认等非数据消息会被跳过并继续读取
func (c *Client) ReadEvents() ([]*types.CandleEvent, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("WebSocket未连接")
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("WebSocket读取消息失败: %v", err)
		}

		evs, err := c.parseCandleMessage(message)
		if err != nil {
			zap.L().Warn("解析K线推送失败",
				zap.String("symbol", c.symbol),
				zap.Error(err))
			continue
		}
		if len(evs) == 0 {
			continue
		}
		return evs, nil
	}
}

// parseCandleMessage 解析K线频道推送，忽略订阅确认等非数据消息
func (c *Client) parseCandleMessage(message []byte) ([]*types.CandleEvent, error) {
	var response okxCandleResponse
	if err := json.Unmarshal(message, &response); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(response.Arg.Channel, "candle") || len(response.Data) == 0 {
		return nil, nil
	}

	interval := strings.TrimPrefix(response.Arg.Channel, "candle")

	var events []*types.CandleEvent
	for _, data := range response.Data {
		ev, err := parseCandleData(response.Arg.InstID, interval, data)
		if err != nil {
			zap.L().Warn("解析单条K线数据失败", zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// parseCandleData 解析OKX K线数组
// 格式: [ts, open, high, low, close, vol, volCcy, volCcyQuote, confirm]
// ts为开盘时间，confirm为"1"表示该K线已收盘
func parseCandleData(symbol, interval string, data []string) (*types.CandleEvent, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("K线数据格式不正确: %d个字段", len(data))
	}

	openTime, err := parseTimestamp(data[0])
	if err != nil {
		return nil, fmt.Errorf("解析开盘时间失败: %v", err)
	}

	open, err := parseFloat(data[1])
	if err != nil {
		return nil, fmt.Errorf("解析开盘价失败: %v", err)
	}
	high, err := parseFloat(data[2])
	if err != nil {
		return nil, fmt.Errorf("解析最高价失败: %v", err)
	}
	low, err := parseFloat(data[3])
	if err != nil {
		return nil, fmt.Errorf("解析最低价失败: %v", err)
	}
	closePrice, err := parseFloat(data[4])
	if err != nil {
		return nil, fmt.Errorf("解析收盘价失败: %v", err)
	}

	return &types.CandleEvent{
		Symbol:   symbol,
		Interval: interval,
		Candle: types.Candle{
			Time:  openTime + IntervalDuration(interval).Milliseconds(),
			Open:  open,
			High:  high,
			Low:   low,
			Close: closePrice,
		},
		Confirmed: data[8] == "1",
	}, nil
}

// StartPing 启动心跳协程，ctx取消或连接关闭后自行退出
func (c *Client) StartPing(ctx context.Context) {
	go c.pingLoop(ctx)
}

// pingLoop 心跳循环
func (c *Client) pingLoop(ctx context.Context) {
	interval := c.config.PingInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			if conn != nil {
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					zap.L().Debug("发送心跳失败",
						zap.String("symbol", c.symbol),
						zap.Error(err))
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close 关闭连接
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
