package cache

// lruNode is a node of the recency list. It stores its key so the oldest
// entry can be removed from the map in O(1).
type lruNode[K comparable, V any] struct {
	key  K
	prev *lruNode[K, V]
	next *lruNode[K, V]
}

// lruList is a doubly-linked recency list; head is the most recently used.
// It is not thread-safe.
type lruList[K comparable, V any] struct {
	head *lruNode[K, V]
	tail *lruNode[K, V]
	n    int
}

func (l *lruList[K, V]) pushFront(key K) *lruNode[K, V] {
	node := &lruNode[K, V]{key: key}
	l.linkFront(node)
	return node
}

func (l *lruList[K, V]) moveToFront(node *lruNode[K, V]) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

func (l *lruList[K, V]) remove(node *lruNode[K, V]) {
	if node != nil {
		l.unlink(node)
	}
}

// removeOldest unlinks the tail and returns its key.
func (l *lruList[K, V]) removeOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	node := l.tail
	l.unlink(node)
	return node.key, true
}

func (l *lruList[K, V]) linkFront(node *lruNode[K, V]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.n++
}

func (l *lruList[K, V]) unlink(node *lruNode[K, V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	l.n--
}
