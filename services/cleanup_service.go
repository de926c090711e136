package services

import (
	"context"
	"time"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/logger"
	"github.com/Honahec/CloudBackend/repositories"
)

// CleanupService 定期把已过期但尚未置位的分享落库置位。
// 读路径上的惰性判定仍是正确性来源，这个任务只是让标志尽早收敛。
type CleanupService interface {
	Start()
	MarkOverdueDrops(ctx context.Context) (int64, error)
}

type cleanupService struct {
	drops repositories.DropRepository
}

func NewCleanupService(drops repositories.DropRepository) CleanupService {
	return &cleanupService{drops: drops}
}

func (s *cleanupService) Start() {
	go s.dropExpirySweepLoop()
}

func (s *cleanupService) dropExpirySweepLoop() {
	interval := time.Duration(config.AppConfig.Drop.ExpirySweepInterval) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		count, err := s.MarkOverdueDrops(context.Background())
		if err != nil {
			logger.Warnf("分享过期扫描失败: %v", err)
			continue
		}
		if count > 0 {
			logger.Infof("标记 %d 个过期分享", count)
		}
	}
}

func (s *cleanupService) MarkOverdueDrops(ctx context.Context) (int64, error) {
	return s.drops.MarkOverdueExpired(ctx, nil, time.Now())
}
