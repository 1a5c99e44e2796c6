package services

import (
	"log"
	"sync"
	"time"

	"campuslink/internal/db"
	"campuslink/internal/models"
)

// ReconcileService 异步核对投票计数器的服务
// vote_count 是为展示性能做的反规范化字段，这里定期用 PollVote 行数校正
type ReconcileService struct {
	queue   chan uint // 待核对的帖子 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
}

var (
	reconcileService *ReconcileService
	reconcileOnce    sync.Once
)

// GetReconcileService 获取单例核对服务
func GetReconcileService() *ReconcileService {
	reconcileOnce.Do(func() {
		reconcileService = &ReconcileService{
			queue:   make(chan uint, 1000), // 缓冲队列，防止阻塞
			pending: make(map[uint]bool),
		}
		go reconcileService.worker()
	})
	return reconcileService
}

// Schedule 将帖子加入核对队列（异步）
// 去重机制避免短时间内重复核对同一帖子
func (s *ReconcileService) Schedule(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Printf("核对队列已满，跳过帖子 %d", postID)
	}
}

// worker 后台批量处理队列中的核对请求
func (s *ReconcileService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *ReconcileService) processBatch(postIDs []uint) {
	for _, postID := range postIDs {
		ReconcilePollCounts(postID)

		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// ReconcilePollCounts 同步核对单个帖子的全部选项计数器
// 以 PollVote 行数为准写回，任何漂移都会被修正并记录
func ReconcilePollCounts(postID uint) {
	var options []models.PollOption
	if err := db.DB.Where("post_id = ?", postID).Find(&options).Error; err != nil {
		log.Printf("核对失败：读取帖子 %d 的选项出错: %v", postID, err)
		return
	}

	for _, option := range options {
		var actual int64
		if err := db.DB.Model(&models.PollVote{}).
			Where("poll_option_id = ?", option.ID).
			Count(&actual).Error; err != nil {
			log.Printf("核对失败：统计选项 %d 的票数出错: %v", option.ID, err)
			continue
		}

		if int(actual) == option.VoteCount {
			continue
		}

		log.Printf("选项 %d 计数漂移：存储 %d，实际 %d，已修正", option.ID, option.VoteCount, actual)
		if err := db.DB.Model(&models.PollOption{}).
			Where("id = ?", option.ID).
			UpdateColumn("vote_count", actual).Error; err != nil {
			log.Printf("修正选项 %d 计数失败: %v", option.ID, err)
		}
	}
}

// StartNightlySweep 启动每日全量核对任务（每天凌晨 4 点执行）
func (s *ReconcileService) StartNightlySweep() {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 4, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			time.Sleep(time.Until(next))

			log.Println("开始全量核对投票计数...")
			s.sweepAll()
			log.Println("全量核对完成")
		}
	}()
}

// sweepAll 核对所有带投票的帖子
func (s *ReconcileService) sweepAll() {
	var postIDs []uint
	if err := db.DB.Model(&models.PollOption{}).
		Distinct("post_id").
		Pluck("post_id", &postIDs).Error; err != nil {
		log.Printf("全量核对失败：%v", err)
		return
	}

	for _, postID := range postIDs {
		ReconcilePollCounts(postID)
	}
	log.Printf("本次核对 %d 个投票", len(postIDs))
}
