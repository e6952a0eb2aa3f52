package queue

import "errors"

var (
	ErrQueueNotFound  = errors.New("queue: not found")
	ErrItemNotFound   = errors.New("queue: item not found")
	ErrAlreadyInQueue = errors.New("queue: patient already in today's queue")
)
