package container

import "container/heap"

// item 优先队列中单个元素
type item[T any] struct {
	value    T
	priority float64
}

// priorityQueue 实现heap.Interface的内部堆
type priorityQueue[T any] []item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

// 小顶堆：Pop返回priority最小的元素
func (pq priorityQueue[T]) Less(i, j int) bool { return pq[i].priority < pq[j].priority }

func (pq priorityQueue[T]) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue[T]) Push(x any) {
	*pq = append(*pq, x.(item[T]))
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = item[T]{}
	*pq = old[:n-1]
	return it
}

// PriorityQueue 优先队列
// 功能：按priority从小到大弹出元素，用于待出发队列等按时间排序的场景
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// Push 加入元素并维护堆结构
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	heap.Push(&q.queue, item[T]{value: value, priority: priority})
}

// Pop 弹出priority最小的元素
func (q *PriorityQueue[T]) Pop() (value T, priority float64) {
	it := heap.Pop(&q.queue).(item[T])
	return it.value, it.priority
}

// Peek 查看priority最小的元素但不弹出
// 说明：空队列上调用会panic，调用方需先检查Len
func (q *PriorityQueue[T]) Peek() (value T, priority float64) {
	return q.queue[0].value, q.queue[0].priority
}
