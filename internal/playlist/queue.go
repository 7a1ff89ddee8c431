// Package playlist holds the lessons of a unit in order and tracks which one
// is open.
package playlist

import "github.com/llehouerou/k12listen/internal/lesson"

// Queue is an ordered lesson list with a current position. It is not safe
// for concurrent use; the lesson player guards it.
type Queue struct {
	lessons      []*lesson.Lesson
	currentIndex int // -1 if nothing open
}

// NewQueue creates a queue holding lessons, with nothing open yet.
func NewQueue(lessons ...*lesson.Lesson) *Queue {
	q := &Queue{currentIndex: -1}
	q.Add(lessons...)
	return q
}

// Current returns the open lesson, or nil if none.
func (q *Queue) Current() *lesson.Lesson {
	return q.At(q.currentIndex)
}

// CurrentIndex returns the index of the open lesson (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// At returns the lesson at index, or nil if out of bounds.
func (q *Queue) At(index int) *lesson.Lesson {
	if index < 0 || index >= len(q.lessons) {
		return nil
	}
	return q.lessons[index]
}

// Next advances to the following lesson and returns it.
// Returns nil, leaving the position unchanged, at the end of the list.
func (q *Queue) Next() *lesson.Lesson {
	if !q.HasNext() {
		return nil
	}
	q.currentIndex++
	return q.Current()
}

// Previous steps back to the preceding lesson and returns it.
// Returns nil, leaving the position unchanged, at the start of the list.
func (q *Queue) Previous() *lesson.Lesson {
	if !q.HasPrevious() {
		return nil
	}
	q.currentIndex--
	return q.Current()
}

// HasNext returns true if there's a lesson after the current one.
func (q *Queue) HasNext() bool {
	return q.currentIndex < len(q.lessons)-1
}

// HasPrevious returns true if there's a lesson before the current one.
func (q *Queue) HasPrevious() bool {
	return q.currentIndex > 0
}

// JumpTo sets the current index to the specified position.
// Returns the lesson at that position, or nil if invalid.
func (q *Queue) JumpTo(index int) *lesson.Lesson {
	if index < 0 || index >= len(q.lessons) {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// IndexOf returns the position of the first lesson with id, or -1.
func (q *Queue) IndexOf(id string) int {
	for i, l := range q.lessons {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Add appends lessons without changing the open one. Nil entries are skipped.
func (q *Queue) Add(lessons ...*lesson.Lesson) {
	for _, l := range lessons {
		if l != nil {
			q.lessons = append(q.lessons, l)
		}
	}
}

// Replace clears the queue, adds lessons, and opens the first one.
// Returns the first lesson, or nil when lessons is empty.
func (q *Queue) Replace(lessons ...*lesson.Lesson) *lesson.Lesson {
	q.Clear()
	q.Add(lessons...)
	return q.JumpTo(0)
}

// Clear removes all lessons.
func (q *Queue) Clear() {
	q.lessons = nil
	q.currentIndex = -1
}

// Lessons returns a copy of the lesson list.
func (q *Queue) Lessons() []*lesson.Lesson {
	result := make([]*lesson.Lesson, len(q.lessons))
	copy(result, q.lessons)
	return result
}

// Len returns the number of lessons.
func (q *Queue) Len() int {
	return len(q.lessons)
}

// IsEmpty returns true if the queue has no lessons.
func (q *Queue) IsEmpty() bool {
	return len(q.lessons) == 0
}
