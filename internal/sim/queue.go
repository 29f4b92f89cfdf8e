package sim

import "container/heap"

// queueItem orders zones by the potential they had when queued; seq keeps
// equal potentials in insertion order.
type queueItem struct {
	zone int
	key  float64
	seq  int
}

type zoneQueue []queueItem

func (q zoneQueue) Len() int { return len(q) }

func (q zoneQueue) Less(i, j int) bool {
	if q[i].key != q[j].key {
		return q[i].key < q[j].key
	}
	return q[i].seq < q[j].seq
}

func (q zoneQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *zoneQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *zoneQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

var _ heap.Interface = (*zoneQueue)(nil)
