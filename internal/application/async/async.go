// Package async 异步执行存储调用
// Future在独立goroutine上执行一次调用;Loop把所有结果回调串行投递到同一个goroutine,
// 表现层状态(当前会话、当前结果列表)因此只有一个写入者
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopClosed 投递循环已关闭
var ErrLoopClosed = errors.New("async: loop closed")

// Future 一次异步调用的结果
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Run 在新goroutine上执行fn,fn收到的ctx与调用方相同
func Run[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done 结果就绪时关闭
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await 等待结果,ctx取消时返回ctx.Err(),调用本身不会被中断
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Loop 单goroutine投递队列
type Loop struct {
	tasks  chan func()
	quit   chan struct{}
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewLoop 创建并启动投递循环,buffer为待投递任务的缓冲数
func NewLoop(buffer int) *Loop {
	l := &Loop{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.quit:
			// quit关闭时已没有进行中的Post,清空队列即可退出
			for {
				select {
				case task := <-l.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Post 把task排入循环,循环关闭后返回ErrLoopClosed
// 不能在loop自身的任务里调用阻塞的Post(队列满时会死锁)
func (l *Loop) Post(task func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLoopClosed
	}
	l.tasks <- task
	return nil
}

// Close 停止接收新任务,等待已入队任务执行完
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.quit)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

// Then 结果就绪后在loop上执行callback
// 返回的channel在callback执行完后关闭,便于调用方按需等待
func Then[T any](loop *Loop, f *Future[T], callback func(T, error)) <-chan struct{} {
	delivered := make(chan struct{})
	go func() {
		<-f.done
		err := loop.Post(func() {
			defer close(delivered)
			callback(f.value, f.err)
		})
		if err != nil {
			close(delivered)
		}
	}()
	return delivered
}
