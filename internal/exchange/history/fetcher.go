package history

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	exws "okx-chandelier-sentry/internal/exchange/websocket"
	"okx-chandelier-sentry/pkg/types"
)

// Fetcher 历史K线数据获取器
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// okxCandlesResponse OKX K线API响应
type okxCandlesResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// NewFetcher 创建历史K线获取器
func NewFetcher(proxy string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	// 设置代理
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err == nil {
			client.Transport = &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			}
		}
	}

	return &Fetcher{
		baseURL:    "https://www.okx.com/api/v5/market",
		httpClient: client,
	}
}

// FetchCandles 获取指定数量的已收盘历史K线，按时间从旧到新返回
func (f *Fetcher) FetchCandles(symbol, interval string, limit int) ([]types.Candle, error) {
	requestURL := fmt.Sprintf("%s/candles?instId=%s&bar=%s&limit=%d",
		f.baseURL, symbol, interval, limit)

	zap.L().Info("📊 获取历史K线数据",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("limit", limit))

	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %v", err)
	}
	req.Header.Set("User-Agent", "OKX-Chandelier-Sentry/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP响应错误: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %v", err)
	}

	var okxResponse okxCandlesResponse
	if err := json.Unmarshal(body, &okxResponse); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %v", err)
	}
	if okxResponse.Code != "0" {
		return nil, fmt.Errorf("OKX API返回错误: code=%s, msg=%s", okxResponse.Code, okxResponse.Msg)
	}

	// 转换为内部K线格式，未收盘的K线（confirm=0）不参与趋势计算
	candles := make([]types.Candle, 0, len(okxResponse.Data))
	for _, data := range okxResponse.Data {
		candle, confirmed, err := parseCandleRow(data, interval)
		if err != nil {
			zap.L().Warn("解析历史K线数据失败", zap.Error(err))
			continue
		}
		if !confirmed {
			continue
		}
		candles = append(candles, candle)
	}

	// OKX返回的数据是从新到旧排序，需要反转为从旧到新
	reverseCandles(candles)

	zap.L().Info("✅ 历史K线数据获取完成",
		zap.String("symbol", symbol),
		zap.Int("requested", limit),
		zap.Int("received", len(candles)))

	return candles, nil
}

// parseCandleRow 解析单条K线数组
// 格式: [ts, open, high, low, close, vol, volCcy, volCcyQuote, confirm]
func parseCandleRow(data []string, interval string) (types.Candle, bool, error) {
	if len(data) < 9 {
		return types.Candle{}, false, fmt.Errorf("K线数据格式不正确: %d个字段", len(data))
	}

	timestamp, err := strconv.ParseInt(data[0], 10, 64)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("解析时间戳失败: %v", err)
	}
	open, err := strconv.ParseFloat(data[1], 64)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("解析开盘价失败: %v", err)
	}
	high, err := strconv.ParseFloat(data[2], 64)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("解析最高价失败: %v", err)
	}
	low, err := strconv.ParseFloat(data[3], 64)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("解析最低价失败: %v", err)
	}
	closePrice, err := strconv.ParseFloat(data[4], 64)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("解析收盘价失败: %v", err)
	}

	return types.Candle{
		Time:  timestamp + exws.IntervalDuration(interval).Milliseconds(),
		Open:  open,
		High:  high,
		Low:   low,
		Close: closePrice,
	}, data[8] == "1", nil
}

// reverseCandles 反转K线数组（从新到旧 → 从旧到新）
func reverseCandles(candles []types.Candle) {
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
}

// FetchMultipleStreams 依次获取多个流的历史数据
// 限速：OKX公共接口10次/2s，请求间隔200毫秒
func (f *Fetcher) FetchMultipleStreams(streams []types.StreamConfig, limit int) (map[string][]types.Candle, error) {
	result := make(map[string][]types.Candle)

	for i, sc := range streams {
		key := sc.Symbol + "/" + sc.Interval
		if _, ok := result[key]; ok {
			continue // 同一 (symbol, interval) 只拉取一次，多个流共享同一份历史
		}

		if i > 0 {
			time.Sleep(200 * time.Millisecond)
		}

		candles, err := f.FetchCandles(sc.Symbol, sc.Interval, limit)
		if err != nil {
			zap.L().Error("获取历史K线失败",
				zap.String("symbol", sc.Symbol),
				zap.String("interval", sc.Interval),
				zap.Error(err))
			// 继续处理其他流，不中断整个初始化过程
			continue
		}

		result[key] = candles
	}

	return result, nil
}
