package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"okx-chandelier-sentry/pkg/types"
)

// Manager 数据库管理器
// 只作为预警流水的落库审计，启动时不回读任何运行状态——
// 历史窗口始终从交易所重新拉取
type Manager struct {
	db     *gorm.DB
	config types.MySQLConfig
}

// FlipSignal 趋势翻转信号模型
type FlipSignal struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Symbol     string    `gorm:"type:varchar(20);not null;index:idx_symbol_time" json:"symbol"`
	Interval   string    `gorm:"type:varchar(10);not null" json:"interval"`
	CandleKind string    `gorm:"type:varchar(10);not null" json:"candle_kind"`
	Direction  int       `gorm:"not null" json:"direction"` // +1 多头 / -1 空头
	Price      float64   `gorm:"type:decimal(20,8);not null" json:"price"`
	AtrMult    float64   `gorm:"type:decimal(5,2);not null" json:"atr_mult"`
	SignalTime int64     `gorm:"not null;index:idx_symbol_time" json:"signal_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewManager 创建数据库管理器
func NewManager(config types.MySQLConfig) (*Manager, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)

	// 配置GORM日志
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // 生产环境使用Silent
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %v", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %v", err)
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	manager := &Manager{
		db:     db,
		config: config,
	}

	// 自动迁移表结构
	if err := manager.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %v", err)
	}

	zap.L().Info("✅ MySQL数据库连接成功",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.Database))

	return manager, nil
}

// AutoMigrate 自动迁移表结构
func (m *Manager) AutoMigrate() error {
	return m.db.AutoMigrate(&FlipSignal{})
}

// SaveFlipSignal 保存翻转信号
func (m *Manager) SaveFlipSignal(alert *types.FlipAlert) error {
	kind := "J"
	if alert.HeikinAshi {
		kind = "HA"
	}

	signal := &FlipSignal{
		Symbol:     alert.Symbol,
		Interval:   alert.Interval,
		CandleKind: kind,
		Direction:  alert.Direction,
		Price:      alert.Price,
		AtrMult:    alert.AtrMult,
		SignalTime: alert.AlertTime.Unix(),
		CreatedAt:  time.Now(),
	}
	return m.db.Create(signal).Error
}

// GetRecentFlips 获取指定交易对最近的翻转信号
func (m *Manager) GetRecentFlips(symbol string, limit int) ([]FlipSignal, error) {
	var signals []FlipSignal
	err := m.db.Where("symbol = ?", symbol).
		Order("signal_time DESC").
		Limit(limit).
		Find(&signals).Error
	return signals, err
}

// CountFlipsSince 统计某时间点之后的翻转数量（按方向分列）
func (m *Manager) CountFlipsSince(since time.Time) (total, long, short int64, err error) {
	base := m.db.Model(&FlipSignal{}).Where("signal_time >= ?", since.Unix())

	if err = base.Count(&total).Error; err != nil {
		return
	}
	if err = m.db.Model(&FlipSignal{}).
		Where("signal_time >= ? AND direction = ?", since.Unix(), 1).
		Count(&long).Error; err != nil {
		return
	}
	short = total - long
	return
}

// Close 关闭数据库连接
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
