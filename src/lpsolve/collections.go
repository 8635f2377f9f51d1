package lpsolve

type linkedListNode[T any] struct {
	value T
	next  *linkedListNode[T]
}

type linkedList[T any] struct {
	head *linkedListNode[T]
	size int
}

type Stack[T any] struct {
	list *linkedList[T]
}

func NewStack[T any]() *Stack[T] {
	return &Stack[T]{
		list: &linkedList[T]{},
	}
}

func (s *Stack[T]) Push(e T) {
	s.list.head = &linkedListNode[T]{value: e, next: s.list.head}
	s.list.size++
}

func (s *Stack[T]) Pop() T {
	if s.list.size == 0 {
		var zero T
		return zero
	}
	node := s.list.head
	s.list.head = node.next
	s.list.size--
	return node.value
}

func (s *Stack[T]) Size() int {
	return s.list.size
}
