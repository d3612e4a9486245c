package selection

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrEmptyPool 池在构造时为空，属于配置错误
	ErrEmptyPool = errors.New("selection: candidate pool is empty")
	// ErrNoAvailableCandidate 本轮 sweep 已尝试所有候选
	ErrNoAvailableCandidate = errors.New("selection: no available candidate")
)

// Strategy 候选选择策略
type Strategy string

const (
	StrategySequential Strategy = "sequential"  // 顺序选择（从第一个开始）
	StrategyRandom     Strategy = "random"      // 随机选择
	StrategyRoundRobin Strategy = "round_robin" // 轮询选择（记住上次位置）
)

// Valid 检查策略取值是否合法。
func (s Strategy) Valid() bool {
	switch s {
	case StrategySequential, StrategyRandom, StrategyRoundRobin:
		return true
	}
	return false
}

// Pool 是一组可互换候选资源的有序集合（API、模型、上传器、通知渠道）。
//
// 除轮询游标外无跨调用状态：游标随每次选择前进一位并取模回绕，
// 同一个 Pool 实例被复用时游标持续累计，以实现进程生命周期内的
// 均衡分配。游标由互斥锁保护，允许跨调用复用同一实例。
type Pool[T any] struct {
	mu       sync.Mutex
	items    []T
	strategy Strategy
	cursor   int
	rng      *rand.Rand
	logger   *zap.Logger
}

// NewPool 创建候选池。items 为空返回 ErrEmptyPool；
// strategy 非法时回退为顺序策略。
func NewPool[T any](items []T, strategy Strategy, logger *zap.Logger) (*Pool[T], error) {
	if len(items) == 0 {
		return nil, ErrEmptyPool
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strategy.Valid() {
		strategy = StrategySequential
	}

	return &Pool[T]{
		items:    append([]T(nil), items...),
		strategy: strategy,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}, nil
}

// Len 返回候选数量。
func (p *Pool[T]) Len() int {
	return len(p.items)
}

// Strategy 返回池的选择策略。
func (p *Pool[T]) Strategy() Strategy {
	return p.strategy
}

// Items 返回候选的只读副本。
func (p *Pool[T]) Items() []T {
	return append([]T(nil), p.items...)
}

// Select 按策略从未用候选中选出下一个。
// used 标记本轮 sweep 已失败的下标，可为 nil；全部用尽时返回
// ErrNoAvailableCandidate。轮询策略在每次选择时前进游标。
func (p *Pool[T]) Select(used map[int]bool) (T, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := make([]int, 0, len(p.items))
	for i := range p.items {
		if !used[i] {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		var zero T
		return zero, -1, ErrNoAvailableCandidate
	}

	var idx int
	switch p.strategy {
	case StrategyRandom:
		idx = available[p.rng.Intn(len(available))]
	case StrategyRoundRobin:
		idx = p.selectRoundRobin(available)
	default:
		idx = available[0]
	}

	p.logger.Debug("candidate selected",
		zap.String("strategy", string(p.strategy)),
		zap.Int("index", idx),
		zap.Int("pool_size", len(p.items)))

	return p.items[idx], idx, nil
}

// Next 选出下一个候选，不做已用标记（单次选择场景）。
func (p *Pool[T]) Next() (T, int) {
	item, idx, _ := p.Select(nil)
	return item, idx
}

// selectRoundRobin 从游标位置起找第一个可用下标，游标每次选择前进一位。
// 调用方必须持有 p.mu。
func (p *Pool[T]) selectRoundRobin(available []int) int {
	availSet := make(map[int]bool, len(available))
	for _, i := range available {
		availSet[i] = true
	}

	for range p.items {
		if availSet[p.cursor] {
			idx := p.cursor
			p.cursor = (p.cursor + 1) % len(p.items)
			return idx
		}
		p.cursor = (p.cursor + 1) % len(p.items)
	}
	return available[0]
}

// SweepOrder 返回一轮完整故障转移的候选下标顺序，每个候选恰好出现一次。
// 轮询策略的游标随整轮前进。
func (p *Pool[T]) SweepOrder() []int {
	used := make(map[int]bool, len(p.items))
	order := make([]int, 0, len(p.items))
	for len(order) < len(p.items) {
		_, idx, err := p.Select(used)
		if err != nil {
			break
		}
		used[idx] = true
		order = append(order, idx)
	}
	return order
}

// Cursor 返回当前轮询游标（仅轮询策略有意义）。
func (p *Pool[T]) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}
