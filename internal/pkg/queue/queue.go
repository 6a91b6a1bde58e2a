/**
 * 无界工作队列
 * @date: 2026.10.16
 * @description: 轮询器与分发器之间的FIFO队列，Push从不阻塞，Pop在队列为空时阻塞
 */
package queue

import (
	"context"
	"sync"
)

// Queue 并发安全的无界FIFO队列
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{} // 容量为1，有新元素时发出信号
}

// New 创建队列
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push 入队
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop 出队，队列为空时阻塞直到有元素或ctx取消
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if item, ok := q.TryPop(); ok {
			return item, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.notify:
		}
	}
}

// TryPop 非阻塞出队
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) > 0 {
		// 仍有剩余元素，唤醒其他等待者
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return item, true
}

// Len 当前长度
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
