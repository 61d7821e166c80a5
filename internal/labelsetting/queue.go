package labelsetting

import "container/heap"

// queueItem is one open entry: an arena index plus the sort key
// snapshotted at push time (the label itself may later be evicted from
// its node's front, but the heap entry is immutable once pushed).
type queueItem struct {
	idx        int32
	signedTime int64
	transfers  int
	seq        int // insertion order, for the stable tie-break
	heapIndex  int
}

// queue implements heap.Interface, ordered lexicographically by
// (signedTime, transfers), ties broken by insertion order. Grounded on
// impactsolutionsas-passbi_core/internal/routing/astar.go's
// PriorityQueue.
type queue []*queueItem

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].signedTime != q[j].signedTime {
		return q[i].signedTime < q[j].signedTime
	}
	if q[i].transfers != q[j].transfers {
		return q[i].transfers < q[j].transfers
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *queue) Push(x any) {
	item := x.(*queueItem)
	item.heapIndex = len(*q)
	*q = append(*q, item)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.heapIndex = -1
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*queue)(nil)
