package persistence

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/metrics"
	"github.com/xiebiao/booksdb/pkg/tracing"
)

const tracerName = "booksdb/store"

// NewBreaker 存储熔断器,只有连接类错误计入失败
// "图书不存在"、"评分无效"这类结果说明存储是可用的,不应该触发熔断
func NewBreaker(backend string, cfg config.BreakerConfig, log *zap.Logger) *circuitbreaker.CircuitBreaker {
	cb := circuitbreaker.NewCircuitBreaker(backend, circuitbreaker.Config{
		Timeout:     cfg.Timeout,
		Interval:    cfg.Interval,
		ReadyToTrip: readyToTrip(cfg),
		IsFailure:   isStoreFailure,
	})
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		log.Warn("存储熔断器状态变化",
			zap.String("backend", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		metrics.SetBreakerState(name, int(to))
	})
	metrics.SetBreakerState(backend, int(circuitbreaker.StateClosed))
	return cb
}

func readyToTrip(cfg config.BreakerConfig) func(circuitbreaker.Counts) bool {
	consecutive := circuitbreaker.ConsecutiveFailures(uint32(cfg.MaxFailures))
	return func(c circuitbreaker.Counts) bool {
		if consecutive(c) {
			return true
		}
		return cfg.FailureRatio > 0 && c.Requests >= cfg.MinRequests && c.FailureRate() >= cfg.FailureRatio
	}
}

// isStoreFailure 连接类错误才计入熔断
// 调用方取消或超时只说明这一次请求放弃了,不代表存储不可用
func isStoreFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return apperrors.IsKind(err, apperrors.ErrCodeConnection)
}

// instrumented 仓储装饰器
// 每次调用:熔断检查 → 追踪Span → 实际调用 → 指标
type instrumented struct {
	next    library.Repository
	backend string
	breaker *circuitbreaker.CircuitBreaker
}

// Instrument 包装仓储,breaker为nil时不熔断
func Instrument(next library.Repository, backend string, breaker *circuitbreaker.CircuitBreaker) library.Repository {
	return &instrumented{next: next, backend: backend, breaker: breaker}
}

// call 执行一次仓储调用
// 熔断器打开时不访问存储,返回包装了ErrOpenState的连接错误
func (r *instrumented) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", r.backend),
			attribute.String("db.operation", op),
		),
	)
	defer span.End()

	start := time.Now()
	var err error
	if r.breaker == nil {
		err = fn(ctx)
	} else {
		err = r.breaker.Execute(func() error { return fn(ctx) })
	}
	elapsed := time.Since(start)

	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, circuitbreaker.ErrOpenState):
		result = metrics.ResultRejected
		err = apperrors.Connectionf(err, "存储暂不可用: %s", r.backend)
		metrics.IncBreakerRequest(r.backend, metrics.ResultRejected)
	case err != nil:
		result = metrics.ResultError
		span.SetAttributes(attribute.Int("app.error_code", apperrors.CodeOf(err)))
	}

	tracing.RecordError(span, err)
	metrics.ObserveStoreOperation(r.backend, op, result, elapsed)
	return err
}

func (r *instrumented) Connect(ctx context.Context, locator string) error {
	// 连接本身不经过熔断器,否则熔断后无法重新连接
	ctx, span := tracing.StartSpan(ctx, tracerName, "store.Connect",
		trace.WithAttributes(attribute.String("db.system", r.backend)))
	defer span.End()

	start := time.Now()
	err := r.next.Connect(ctx, locator)
	tracing.RecordError(span, err)
	metrics.ObserveStoreOperation(r.backend, "Connect", resultOf(err), time.Since(start))
	return err
}

func (r *instrumented) Disconnect(ctx context.Context) error {
	return r.next.Disconnect(ctx)
}

func (r *instrumented) Login(ctx context.Context, username, password string) (*library.User, error) {
	var u *library.User
	err := r.call(ctx, "Login", func(ctx context.Context) (err error) {
		u, err = r.next.Login(ctx, username, password)
		return err
	})
	return u, err
}

func (r *instrumented) FindBooksByTitle(ctx context.Context, title string) ([]*library.Book, error) {
	return r.books(ctx, "FindBooksByTitle", func(ctx context.Context) ([]*library.Book, error) {
		return r.next.FindBooksByTitle(ctx, title)
	})
}

func (r *instrumented) FindBooksByIsbn(ctx context.Context, isbn string) ([]*library.Book, error) {
	return r.books(ctx, "FindBooksByIsbn", func(ctx context.Context) ([]*library.Book, error) {
		return r.next.FindBooksByIsbn(ctx, isbn)
	})
}

func (r *instrumented) FindBooksByAuthor(ctx context.Context, name string) ([]*library.Book, error) {
	return r.books(ctx, "FindBooksByAuthor", func(ctx context.Context) ([]*library.Book, error) {
		return r.next.FindBooksByAuthor(ctx, name)
	})
}

func (r *instrumented) FindBooksByGenre(ctx context.Context, genre string) ([]*library.Book, error) {
	return r.books(ctx, "FindBooksByGenre", func(ctx context.Context) ([]*library.Book, error) {
		return r.next.FindBooksByGenre(ctx, genre)
	})
}

func (r *instrumented) FindBooksByRating(ctx context.Context, min float64) ([]*library.Book, error) {
	return r.books(ctx, "FindBooksByRating", func(ctx context.Context) ([]*library.Book, error) {
		return r.next.FindBooksByRating(ctx, min)
	})
}

func (r *instrumented) books(ctx context.Context, op string, fn func(ctx context.Context) ([]*library.Book, error)) ([]*library.Book, error) {
	var out []*library.Book
	err := r.call(ctx, op, func(ctx context.Context) (err error) {
		out, err = fn(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *instrumented) AddBook(ctx context.Context, book *library.Book) error {
	return r.call(ctx, "AddBook", func(ctx context.Context) error {
		return r.next.AddBook(ctx, book)
	})
}

func (r *instrumented) AddAuthor(ctx context.Context, author *library.Author) error {
	return r.call(ctx, "AddAuthor", func(ctx context.Context) error {
		return r.next.AddAuthor(ctx, author)
	})
}

func (r *instrumented) AddGenre(ctx context.Context, genre *library.Genre) error {
	return r.call(ctx, "AddGenre", func(ctx context.Context) error {
		return r.next.AddGenre(ctx, genre)
	})
}

func (r *instrumented) AddReview(ctx context.Context, book *library.Book, user *library.User, rating int, text string) error {
	return r.call(ctx, "AddReview", func(ctx context.Context) error {
		return r.next.AddReview(ctx, book, user, rating, text)
	})
}

func (r *instrumented) GetAllAuthors(ctx context.Context) ([]*library.Author, error) {
	var out []*library.Author
	err := r.call(ctx, "GetAllAuthors", func(ctx context.Context) (err error) {
		out, err = r.next.GetAllAuthors(ctx)
		return err
	})
	return out, err
}

func (r *instrumented) GetAllGenres(ctx context.Context) ([]*library.Genre, error) {
	var out []*library.Genre
	err := r.call(ctx, "GetAllGenres", func(ctx context.Context) (err error) {
		out, err = r.next.GetAllGenres(ctx)
		return err
	})
	return out, err
}

func (r *instrumented) RemoveBook(ctx context.Context, book *library.Book) error {
	return r.call(ctx, "RemoveBook", func(ctx context.Context) error {
		return r.next.RemoveBook(ctx, book)
	})
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
