package parking

import (
	"github.com/emirpasic/gods/sets/treeset"
)

// Slot is one occupied row of the lot as reported by GetStatus.
type Slot struct {
	Number  int
	Vehicle Vehicle
}

// freeSlots keeps unoccupied slot numbers ordered so the lowest one can be
// taken in O(log n).
type freeSlots struct {
	set *treeset.Set
}

func newFreeSlots(capacity int) *freeSlots {
	set := treeset.NewWithIntComparator()
	for i := 1; i <= capacity; i++ {
		set.Add(i)
	}
	return &freeSlots{set: set}
}

// Take removes and returns the lowest free slot number.
func (f *freeSlots) Take() (int, bool) {
	it := f.set.Iterator()
	if !it.First() {
		return 0, false
	}
	number := it.Value().(int)
	f.set.Remove(number)
	return number, true
}

func (f *freeSlots) Release(number int) {
	f.set.Add(number)
}

func (f *freeSlots) Contains(number int) bool {
	return f.set.Contains(number)
}

func (f *freeSlots) Len() int {
	return f.set.Size()
}

// Numbers returns the free slot numbers in ascending order.
func (f *freeSlots) Numbers() []int {
	values := f.set.Values()
	numbers := make([]int, len(values))
	for i, v := range values {
		numbers[i] = v.(int)
	}
	return numbers
}
